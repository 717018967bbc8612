// Package main is the entry point for the Vinted watch bot.
package main

import (
	"os"

	"github.com/Roroz7/Miky-Vinted-discord-bot/cmd/vintedbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
