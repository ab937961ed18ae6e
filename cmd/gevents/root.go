package main

import (
	"log/slog"

	"github.com/bassbeaver/gevents"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd creates the root command for the gevents CLI.
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "gevents",
		Short:         "Once-only prioritized event registry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	bindGlobalFlags(cmd.PersistentFlags(), &configPath)

	cmd.AddCommand(NewServeCmd(&configPath))
	cmd.AddCommand(NewDescribeCmd(&configPath))
	cmd.AddCommand(NewDemoCmd())

	return cmd
}

func bindGlobalFlags(flags *pflag.FlagSet, configPath *string) {
	flags.StringVarP(configPath, "config", "c", "config", "config directory")
}

// loadKernel builds a kernel from configPath with the built-in services registered.
func loadKernel(configPath string) (*gevents.Kernel, error) {
	kernel, kernelError := gevents.NewKernel(configPath)
	if nil != kernelError {
		return nil, kernelError
	}
	slog.SetDefault(kernel.GetLogger())

	if registerError := registerBuiltinServices(kernel); nil != registerError {
		return nil, registerError
	}

	return kernel, nil
}
