package main

import (
	"os"

	"friendsd/cmd"
	"friendsd/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Log.WithError(err).Error("friendsd failed")
		os.Exit(1)
	}
}
