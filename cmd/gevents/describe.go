package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewDescribeCmd creates the describe subcommand.
func NewDescribeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the listeners declared in the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kernel, loadError := loadKernel(*configPath)
			if nil != loadError {
				return loadError
			}

			if listenersError := kernel.LoadListeners(); nil != listenersError {
				return listenersError
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if encodeError := encoder.Encode(kernel.Snapshot()); nil != encodeError {
				return encodeError
			}

			return encoder.Close()
		},
	}
}
