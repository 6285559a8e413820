package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "shopctl",
		Short:         "发卡商城运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(productCmd())
	rootCmd.AddCommand(cardsCmd())
	rootCmd.AddCommand(ordersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
