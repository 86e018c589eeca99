package main

import (
	"github.com/joho/godotenv"

	"github.com/tidepool-org/caretrack/cmd/caretrack/command"
)

func main() {
	// Local development only, the environment takes precedence
	_ = godotenv.Load()

	command.Execute()
}
