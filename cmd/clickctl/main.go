package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clickctl",
		Short:         "Operator tooling for the Click integration",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(signCmd())
	root.AddCommand(urlCmd())
	root.AddCommand(invoiceCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(tokenCmd())

	return root
}
