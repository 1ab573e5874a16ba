package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var leaseCmd = &cobra.Command{
	Use:   "lease",
	Short: "Acquire and release backend leases.",
}

var leaseAcquireCmd = &cobra.Command{
	Use:   "acquire [resource]",
	Short: "Acquire a lease and print the acquisition token.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		token, err := r.Acquire(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var leaseReleaseCmd = &cobra.Command{
	Use:   "release [resource] [token]",
	Short: "Release a lease. Safe to repeat.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		return r.Release(context.Background(), args[1])
	},
}

func init() {
	leaseCmd.AddCommand(leaseAcquireCmd)
	leaseCmd.AddCommand(leaseReleaseCmd)
}
