package main

import (
	"os"

	"kpiboard/cmd/kpiboard/commands"
)

// main 统一 CLI 入口: kpiboard [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
