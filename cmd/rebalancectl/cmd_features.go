package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/spf13/cobra"
)

var candleColumns = []string{"open", "high", "low", "close", "volume"}

func newFeaturesCmd() *cobra.Command {
	var (
		token   string
		candles string
	)

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Compute a token's feature vector from daily candles",
		Long: `Reads daily OHLCV candles (oldest first, header open,high,low,close,volume)
and prints the feature vector the return model consumes. Extra columns are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(candles)
			if err != nil {
				return err
			}
			defer f.Close()

			v, err := computeFeatures(token, f)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token symbol")
	cmd.Flags().StringVar(&candles, "candles", "", "Candle CSV")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("candles")
	return cmd
}

func computeFeatures(token string, r io.Reader) (features.Vector, error) {
	table, err := readCSV(r)
	if err != nil {
		return features.Vector{}, err
	}

	rows, err := table.floats(candleColumns)
	if err != nil {
		return features.Vector{}, err
	}

	candles := make([]features.Candle, len(rows))
	for i, row := range rows {
		candles[i] = features.Candle{Open: row[0], High: row[1], Low: row[2], Close: row[3], Volume: row[4]}
	}

	return features.FromCandles(token, candles)
}
