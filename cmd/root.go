// Package cmd contains the qres command line interface.
package cmd

import (
	"fmt"

	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/resource"
	"github.com/spf13/cobra"
)

var configFile string

// RootCmd represents the root command.
var RootCmd = &cobra.Command{
	Use:           "qres",
	Short:         "Acquire and run tasks on remote quantum compute backends.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config File")
	RootCmd.AddCommand(backendCmd)
	RootCmd.AddCommand(taskCmd)
	RootCmd.AddCommand(leaseCmd)
	RootCmd.AddCommand(versionCmd)
}

// loadConfig parses the config file given on the command line.
func loadConfig() (config.Config, error) {
	conf := config.DefaultConfig()
	if configFile == "" {
		return conf, fmt.Errorf("no config file given, use --config")
	}
	if err := config.ParseFile(configFile, &conf); err != nil {
		return conf, err
	}
	return conf, nil
}

// loadResource builds a handle on the named resource from the config file.
func loadResource(name string) (resource.Resource, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rc, ok := conf.Find(name)
	if !ok {
		return nil, fmt.Errorf("resource %q not found in config", name)
	}

	log := logger.New("qres", "resource", name)
	logger.Configure(log, conf.Logger)
	return resource.New(rc, log)
}
