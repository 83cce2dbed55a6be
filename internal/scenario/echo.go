package scenario

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const (
	EchoScenarioName = "echo"
	EchoTaskName     = "echo_request"
	EchoPath         = "/echo"
	EchoWaitMin      = 1
	EchoWaitMax      = 5
)

// Echo returns the built-in echo-server scenario: wait 1..5s between tasks,
// one task issuing GET /echo.
func Echo(log *zap.Logger) Scenario {
	return Scenario{
		Name: EchoScenarioName,
		Wait: Between(EchoWaitMin, EchoWaitMax),
		Tasks: []Task{
			{Name: EchoTaskName, Weight: 1, Fn: EchoTask(log)},
		},
	}
}

// EchoTask issues GET /echo and logs a diagnostic on any non-200 status.
func EchoTask(log *zap.Logger) TaskFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, c Client) error {
		resp, err := c.Get(ctx, EchoPath)
		if err != nil {
			return err
		}
		checkStatus(log, http.MethodGet, EchoPath, http.StatusOK, resp.StatusCode)
		return nil
	}
}

// StatusCheckTask issues method path with body and logs a diagnostic when
// the status differs from expect. The mismatch is not an error.
func StatusCheckTask(log *zap.Logger, method, path string, body []byte, expect int) TaskFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, c Client) error {
		resp, err := c.Do(ctx, method, path, body)
		if err != nil {
			return err
		}
		checkStatus(log, method, path, expect, resp.StatusCode)
		return nil
	}
}

func checkStatus(log *zap.Logger, method, path string, expect, got int) {
	if got == expect {
		return
	}
	log.Warn(fmt.Sprintf("Received non-%d status code: %d", expect, got),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", got),
	)
}
