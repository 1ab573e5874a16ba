package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Inspect configured backends.",
}

var backendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the backends in the config file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		for _, r := range conf.Resources {
			fmt.Printf("%s\t%s\t%s\n", r.Name, r.Family, r.Endpoint)
		}
		return nil
	},
}

var backendCheckCmd = &cobra.Command{
	Use:   "check [resource]",
	Short: "Check whether a backend is reachable and accepting work.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		if !r.IsAccessible(context.Background()) {
			return fmt.Errorf("backend %q is not accessible", args[0])
		}
		fmt.Println("accessible")
		return nil
	},
}

var backendTargetCmd = &cobra.Command{
	Use:   "target [resource]",
	Short: "Print the backend system snapshot used for transpilation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		doc, err := r.Target(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
		return nil
	},
}

func init() {
	backendCmd.AddCommand(backendListCmd)
	backendCmd.AddCommand(backendCheckCmd)
	backendCmd.AddCommand(backendTargetCmd)
}
