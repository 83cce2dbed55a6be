// Package scenario describes what a simulated user does.
//
// A Scenario is a wait-time policy plus an explicit list of weighted tasks.
// Tasks receive their HTTP client as a parameter, so the same task body runs
// against the live engine client or a test double.
//
// # Built-in scenario
//
//	sc := scenario.Echo(log)      // wait 1..5s, one task: GET /echo
//	task := sc.Pick(rng)
//	err := task.Fn(ctx, client)
//
// A non-200 response from /echo is logged as
// "Received non-200 status code: <code>" and is not an error. Transport
// failures are returned to the caller unchanged.
package scenario
