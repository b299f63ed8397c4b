package prediction

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies the model family stored in an artifact
type Kind string

const (
	KindLinear       Kind = "linear"
	KindTreeEnsemble Kind = "tree_ensemble"
)

// Format is the wire encoding of an artifact
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Artifact is the serialized form of a trained model
type Artifact struct {
	Kind         Kind        `json:"kind" msgpack:"kind"`
	Name         string      `json:"name,omitempty" msgpack:"name,omitempty"`
	FeatureNames []string    `json:"feature_names" msgpack:"feature_names"`
	Intercept    float64     `json:"intercept,omitempty" msgpack:"intercept,omitempty"`
	Coefficients []float64   `json:"coefficients,omitempty" msgpack:"coefficients,omitempty"`
	BaseScore    float64     `json:"base_score,omitempty" msgpack:"base_score,omitempty"`
	Trees        []*TreeNode `json:"trees,omitempty" msgpack:"trees,omitempty"`
}

// FormatFromPath picks the encoding from a file extension. Anything that is
// not msgpack is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk", ".mp":
		return FormatMsgpack
	}
	return FormatJSON
}

// DecodeArtifact parses an artifact in the given format
func DecodeArtifact(data []byte, format Format) (*Artifact, error) {
	var a Artifact
	var err error

	switch format {
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &a)
	case FormatJSON, "":
		err = json.Unmarshal(data, &a)
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidArtifact, format, err)
	}

	return &a, nil
}

// Encode serializes the artifact
func (a *Artifact) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatMsgpack:
		return msgpack.Marshal(a)
	case FormatJSON, "":
		return json.MarshalIndent(a, "", "  ")
	}
	return nil, fmt.Errorf("unsupported artifact format %q", format)
}

// LinearArtifact captures a fitted linear model
func LinearArtifact(m *LinearModel, featureNames []string) *Artifact {
	return &Artifact{
		Kind:         KindLinear,
		Name:         m.Name(),
		FeatureNames: featureNames,
		Intercept:    m.Intercept,
		Coefficients: m.Coefficients,
	}
}

// Model builds the model described by the artifact. When expected is non-empty
// the artifact's feature names must match it exactly, in order.
func (a *Artifact) Model(expected []string) (Model, error) {
	if len(expected) > 0 {
		if err := checkFeatureNames(a.FeatureNames, expected); err != nil {
			return nil, err
		}
	}

	switch a.Kind {
	case KindLinear:
		if len(a.Coefficients) != len(a.FeatureNames) {
			return nil, fmt.Errorf("%w: %d coefficients for %d features",
				ErrInvalidArtifact, len(a.Coefficients), len(a.FeatureNames))
		}
		return NewLinearModel(a.Name, a.Intercept, a.Coefficients), nil
	case KindTreeEnsemble:
		return NewTreeEnsemble(a.Name, a.BaseScore, a.FeatureNames, a.Trees)
	}

	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidArtifact, a.Kind)
}

func checkFeatureNames(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: artifact has %d features, expected %d", ErrInvalidArtifact, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: feature %d is %q, expected %q", ErrInvalidArtifact, i, got[i], want[i])
		}
	}
	return nil
}
