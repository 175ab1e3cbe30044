package main

import (
	"os"

	"github.com/betjuliano/Bard-AI/cmd/bardai/cmd"
	"github.com/betjuliano/Bard-AI/pkg/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Application execution failed")
		os.Exit(1)
	}
}
