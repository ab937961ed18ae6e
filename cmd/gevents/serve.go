package main

import (
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Launch the kernel and serve the inspection API",
		Long: `Load listeners declared in the configuration, trigger the application
launched event and serve the read-only inspection API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kernel, loadError := loadKernel(*configPath)
			if nil != loadError {
				return loadError
			}

			return kernel.Run()
		},
	}
}
