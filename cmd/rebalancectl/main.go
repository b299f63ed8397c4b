// Command rebalancectl runs the rebalancer pipeline pieces offline: weighting
// predicted returns, fitting a linear return model and computing token features.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the rebalancectl CLI
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rebalancectl",
		Short: "Offline tools for the portfolio rebalancer",
		Long: `rebalancectl exposes the rebalancer building blocks on the command line.

Examples:
  rebalancectl weights --strategy Growth WBNB=0.03 CAKE=-0.01 BUSD=0
  rebalancectl train --input history.csv --output model.msgpack
  rebalancectl features --token CAKE --candles cake_daily.csv`,
		SilenceUsage: true,
	}

	root.AddCommand(newWeightsCmd(), newTrainCmd(), newFeaturesCmd())
	return root
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
