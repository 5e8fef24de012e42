package main

import (
	"github.com/haytac/emojifix/internal/cli"
	"github.com/haytac/emojifix/internal/logging"
)

func main() {
	// Basic logger until the root command has loaded the configuration.
	logging.Setup(logging.Config{Level: "info", Console: true, TimeFormat: "15:04:05"})

	cli.Execute()
}
