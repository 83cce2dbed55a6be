package main

import "echoload/cmd"

func main() {
	cmd.Execute()
}
