package cmd

import (
	"fmt"

	"github.com/qcgrid/qres/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of qres.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}
