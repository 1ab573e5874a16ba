package main

import (
	"os"

	"github.com/qcgrid/qres/cmd"
	"github.com/qcgrid/qres/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
