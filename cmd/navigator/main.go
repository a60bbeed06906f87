package main

import (
	"os"

	"github.com/wonny/etfnav/backend/cmd/navigator/commands"
)

// main is the entry point for the ETF navigator CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/navigator [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
