package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWeightsCommand(t *testing.T) {
	out, err := run(t, "weights", "--strategy", "Balanced", "A=0.05", "B=-0.10", "C=0.02")
	require.NoError(t, err)

	var resp weightsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Balanced", resp.Strategy.String())
	require.Len(t, resp.Weights, 3)
	assert.Equal(t, "A", resp.Weights[0].Token)
	assert.Equal(t, 0.53, resp.Weights[0].Weight)
	assert.Equal(t, 0.0, resp.Weights[1].Weight)
	assert.Equal(t, 0.47, resp.Weights[2].Weight)
	assert.InDelta(t, 1.0, resp.Sum, 1e-9)
}

func TestWeightsCommand_Errors(t *testing.T) {
	_, err := run(t, "weights", "--strategy", "growth", "A=0.1")
	assert.Error(t, err)

	_, err = run(t, "weights", "A")
	assert.Error(t, err)

	_, err = run(t, "weights", "A=lots")
	assert.Error(t, err)

	_, err = run(t, "weights")
	assert.Error(t, err)
}

func TestParsePredictions(t *testing.T) {
	preds, err := parsePredictions([]string{"WBNB=0.01", " CAKE = -0.02"})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "CAKE", preds[1].Token)
	assert.Equal(t, -0.02, preds[1].Return7d)

	_, err = parsePredictions([]string{"=0.1"})
	assert.Error(t, err)
}

// trainingCSV writes rows whose target is an exact linear function of the features
func trainingCSV(rows int, intercept float64, coefs []float64) string {
	rng := rand.New(rand.NewSource(11))
	var b strings.Builder
	b.WriteString(strings.Join(features.Names, ",") + "," + targetColumn + "\n")
	for r := 0; r < rows; r++ {
		y := intercept
		for i := range features.Names {
			v := rng.Float64() * float64(i+1)
			y += coefs[i] * v
			fmt.Fprintf(&b, "%.12f,", v)
		}
		fmt.Fprintf(&b, "%.12f\n", y)
	}
	return b.String()
}

func TestTrainArtifact(t *testing.T) {
	coefs := make([]float64, len(features.Names))
	coefs[3] = 0.002  // close
	coefs[5] = -0.001 // rsi

	artifact, rows, err := trainArtifact(strings.NewReader(trainingCSV(60, 0.01, coefs)), "unit")
	require.NoError(t, err)
	assert.Equal(t, 60, rows)
	assert.Equal(t, prediction.KindLinear, artifact.Kind)
	assert.Equal(t, features.Names, artifact.FeatureNames)
	assert.InDelta(t, 0.01, artifact.Intercept, 1e-6)
	assert.InDelta(t, 0.002, artifact.Coefficients[3], 1e-6)
	assert.InDelta(t, -0.001, artifact.Coefficients[5], 1e-6)
}

func TestTrainArtifact_MissingColumn(t *testing.T) {
	_, _, err := trainArtifact(strings.NewReader("open,high\n1,2\n"), "unit")
	assert.Error(t, err)
}

func TestTrainCommand_WritesLoadableModel(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "train.csv")
	output := filepath.Join(dir, "model.msgpack")

	coefs := make([]float64, len(features.Names))
	coefs[0] = 0.001
	require.NoError(t, os.WriteFile(input, []byte(trainingCSV(40, 0, coefs)), 0644))

	out, err := run(t, "train", "--input", input, "--output", output, "--name", "cli-model")
	require.NoError(t, err)
	assert.Contains(t, out, "trained cli-model on 40 rows")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	artifact, err := prediction.DecodeArtifact(data, prediction.FormatMsgpack)
	require.NoError(t, err)

	m, err := artifact.Model(features.Names)
	require.NoError(t, err)
	assert.Equal(t, "cli-model", m.Name())
}

func candleCSV(n int) string {
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	for i := 1; i <= n; i++ {
		c := float64(i)
		fmt.Fprintf(&b, "2024-01-%02d,%g,%g,%g,%g,1000\n", i%28+1, c, c*1.1, c*0.9, c)
	}
	return b.String()
}

func TestComputeFeatures(t *testing.T) {
	v, err := computeFeatures("ETH", strings.NewReader(candleCSV(40)))
	require.NoError(t, err)
	assert.Equal(t, "ETH", v.Token)
	assert.Equal(t, 40.0, v.Close)
	assert.InDelta(t, 40.0/33.0-1, v.Return7d, 1e-12)

	_, err = computeFeatures("ETH", strings.NewReader(candleCSV(5)))
	assert.ErrorIs(t, err, features.ErrInsufficientHistory)
}

func TestFeaturesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(candleCSV(40)), 0644))

	out, err := run(t, "features", "--token", "ETH", "--candles", path)
	require.NoError(t, err)

	var v features.Vector
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "ETH", v.Token)

	_, err = run(t, "features", "--token", "ETH")
	assert.Error(t, err)
}
