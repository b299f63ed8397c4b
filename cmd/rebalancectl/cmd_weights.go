package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/rebalancer/internal/modules/redistribution"
	"github.com/spf13/cobra"
)

type weightsOutput struct {
	Strategy redistribution.Strategy `json:"strategy"`
	Weights  redistribution.Weights  `json:"weights"`
	Sum      float64                 `json:"sum"`
}

func newWeightsCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "weights TOKEN=RETURN...",
		Short: "Redistribute weights from predicted 7-day returns",
		Long: `Converts predicted 7-day returns into portfolio weights.
Tokens keep the order they are given in.

Example:
  rebalancectl weights --strategy Balanced WBNB=0.02 CAKE=0.05 BUSD=-0.01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := redistribution.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			predictions, err := parsePredictions(args)
			if err != nil {
				return err
			}

			weights, err := redistribution.Redistribute(predictions, s)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(weightsOutput{Strategy: s, Weights: weights, Sum: weights.Sum()})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(redistribution.DefaultStrategy), "Preservation, Balanced or Growth")
	return cmd
}

// parsePredictions reads TOKEN=RETURN pairs
func parsePredictions(args []string) ([]redistribution.Prediction, error) {
	out := make([]redistribution.Prediction, 0, len(args))
	for _, arg := range args {
		token, value, ok := strings.Cut(arg, "=")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return nil, fmt.Errorf("expected TOKEN=RETURN, got %q", arg)
		}

		r, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid return for %s: %w", token, err)
		}
		out = append(out, redistribution.Prediction{Token: token, Return7d: r})
	}
	return out, nil
}
