package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/spf13/cobra"
)

// targetColumn holds the realized 7-day forward return in training files
const targetColumn = "target_return_7d"

func newTrainCmd() *cobra.Command {
	var (
		input  string
		output string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a linear return model from a feature CSV",
		Long: `Fits an ordinary least squares model mapping token features to the
realized 7-day forward return and writes it as a model artifact.

The CSV needs a header with every feature column (` + fmt.Sprint(features.Names) + `)
plus ` + targetColumn + `. The artifact format follows the output extension
(.json or .msgpack).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			artifact, rows, err := trainArtifact(f, name)
			if err != nil {
				return err
			}

			data, err := artifact.Encode(prediction.FormatFromPath(output))
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write model: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "trained %s on %d rows, wrote %s\n", artifact.Name, rows, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Training CSV")
	cmd.Flags().StringVar(&output, "output", "model.json", "Artifact path (.json or .msgpack)")
	cmd.Flags().StringVar(&name, "name", "linear-7d", "Model name recorded in the artifact")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// trainArtifact fits a linear model and returns its artifact plus the row count
func trainArtifact(r io.Reader, name string) (*prediction.Artifact, int, error) {
	table, err := readCSV(r)
	if err != nil {
		return nil, 0, err
	}

	x, err := table.floats(features.Names)
	if err != nil {
		return nil, 0, err
	}
	target, err := table.floats([]string{targetColumn})
	if err != nil {
		return nil, 0, err
	}

	y := make([]float64, len(target))
	for i, row := range target {
		y[i] = row[0]
	}

	model, err := prediction.FitLinear(name, x, y)
	if err != nil {
		return nil, 0, err
	}

	return prediction.LinearArtifact(model, features.Names), len(y), nil
}
