package main

import (
	"fmt"
	"os"

	"github.com/benvon/bobbys-store/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "bobbys-store-configure",
		Short:         "Operator tool for the bobbys-store API",
		Long:          "CLI tool for inspecting the resolved configuration and checking the document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewConfigCmd())
	rootCmd.AddCommand(commands.NewDBCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
