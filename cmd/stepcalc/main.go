package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/stepcalc/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stepcalc",
	Short: "A calculator that shows its work",
	Long: "stepcalc evaluates arithmetic over scalars, complex numbers, polynomials, " +
		"matrices, and vectors, and can print every step of the derivation.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./stepcalc.yaml, then ~/.stepcalc/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose/debug logging")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("stepcalc version %s\n", version))

	rootCmd.AddCommand(cli.NewEvalCmd())
	rootCmd.AddCommand(cli.NewReplCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
}
