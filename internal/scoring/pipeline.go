// Package scoring loads the exported fraud classification pipeline and scores
// engineered feature vectors with it.
package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hongminglow/fraudpulse-be/internal/features"
	"github.com/hongminglow/fraudpulse-be/internal/models"
)

var (
	// ErrArtifactNotFound means the model file does not exist.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrInvalidArtifact means the file was read but does not describe a usable pipeline.
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrSchemaMismatch means the vector does not have the columns the pipeline was fit on.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrUnknownCategory means a categorical value was not seen during training.
	ErrUnknownCategory = errors.New("unknown category")
)

const defaultThreshold = 0.5

// Prediction is the output of one scoring call.
type Prediction struct {
	Class     int     `json:"predicted_class"`
	RiskScore float64 `json:"risk_score"`
}

// Pipeline is an immutable, compiled artifact. It is safe for concurrent use.
type Pipeline struct {
	version   string
	columns   []string
	encoded   []string
	steps     []encodeStep
	clf       classifier
	threshold float64
}

type encodeStep struct {
	column     string
	categories []string
	scaled     bool
	mean       float64
	scale      float64
}

// ResolvePath joins a relative model path onto baseDir.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load reads and compiles the artifact at path. The encoding is chosen from
// the extension: .yaml/.yml for YAML, anything else for JSON.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return Parse(data, format)
}

// Parse decodes an artifact from data in the given format ("json" or "yaml").
func Parse(data []byte, format string) (*Pipeline, error) {
	var art Artifact
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &art); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidArtifact, err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&art); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidArtifact, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidArtifact, format)
	}
	return New(art)
}

// New compiles an in-memory artifact.
func New(art Artifact) (*Pipeline, error) {
	if len(art.FeatureColumns) == 0 {
		return nil, fmt.Errorf("%w: feature_columns is empty", ErrInvalidArtifact)
	}

	p := &Pipeline{
		version:   art.ModelVersion,
		columns:   slices.Clone(art.FeatureColumns),
		threshold: defaultThreshold,
	}
	if p.version == "" {
		p.version = models.DefaultModelVersion
	}
	if art.Threshold != nil {
		if *art.Threshold < 0 || *art.Threshold > 1 {
			return nil, fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidArtifact, *art.Threshold)
		}
		p.threshold = *art.Threshold
	}

	seen := make(map[string]bool, len(art.FeatureColumns))
	for _, col := range art.FeatureColumns {
		if seen[col] {
			return nil, fmt.Errorf("%w: duplicate feature column %q", ErrInvalidArtifact, col)
		}
		seen[col] = true

		if cat, ok := art.Preprocessor.Categorical[col]; ok {
			if col != features.ColType {
				return nil, fmt.Errorf("%w: column %q cannot be one-hot encoded", ErrInvalidArtifact, col)
			}
			if len(cat.Categories) == 0 {
				return nil, fmt.Errorf("%w: categorical column %q has no categories", ErrInvalidArtifact, col)
			}
			p.steps = append(p.steps, encodeStep{column: col, categories: slices.Clone(cat.Categories)})
			for _, c := range cat.Categories {
				p.encoded = append(p.encoded, col+"_"+c)
			}
			continue
		}
		if col == features.ColType {
			return nil, fmt.Errorf("%w: column %q must be one-hot encoded", ErrInvalidArtifact, col)
		}

		step := encodeStep{column: col}
		if sc, ok := art.Preprocessor.Numeric[col]; ok {
			step.scaled = true
			step.mean = sc.Mean
			step.scale = sc.Scale
			if step.scale == 0 {
				step.scale = 1
			}
		}
		p.steps = append(p.steps, step)
		p.encoded = append(p.encoded, col)
	}
	for col := range art.Preprocessor.Categorical {
		if !seen[col] {
			return nil, fmt.Errorf("%w: encoder for unknown column %q", ErrInvalidArtifact, col)
		}
	}
	for col := range art.Preprocessor.Numeric {
		if !seen[col] {
			return nil, fmt.Errorf("%w: scaler for unknown column %q", ErrInvalidArtifact, col)
		}
	}

	clf, err := compileClassifier(art.Classifier, p.encoded)
	if err != nil {
		return nil, err
	}
	p.clf = clf
	return p, nil
}

// Version returns the model version recorded in prediction logs.
func (p *Pipeline) Version() string {
	return p.version
}

// Columns returns the feature columns the pipeline was fit on.
func (p *Pipeline) Columns() []string {
	return slices.Clone(p.columns)
}

// Threshold is the probability above which a transaction is labelled fraud.
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Predict scores v. The class is 1 only when the risk score is strictly above
// the threshold, so a 0.5 score at the default threshold is class 0.
func (p *Pipeline) Predict(v features.Vector) (Prediction, error) {
	if !slices.Equal(v.Columns(), p.columns) {
		return Prediction{}, fmt.Errorf("%w: pipeline expects %v, got %v", ErrSchemaMismatch, p.columns, v.Columns())
	}
	x, err := p.encode(v)
	if err != nil {
		return Prediction{}, err
	}

	score := p.clf.probability(x)
	if math.IsNaN(score) {
		return Prediction{}, errors.New("scoring produced NaN")
	}
	score = math.Max(0, math.Min(1, score))

	class := 0
	if score > p.threshold {
		class = 1
	}
	return Prediction{Class: class, RiskScore: score}, nil
}

func (p *Pipeline) encode(v features.Vector) ([]float64, error) {
	x := make([]float64, 0, len(p.encoded))
	for _, step := range p.steps {
		if step.categories != nil {
			cat := v.Category()
			idx := slices.Index(step.categories, cat)
			if idx < 0 {
				return nil, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, step.column, cat)
			}
			for i := range step.categories {
				if i == idx {
					x = append(x, 1)
				} else {
					x = append(x, 0)
				}
			}
			continue
		}
		val, ok := v.Numeric(step.column)
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, step.column)
		}
		if step.scaled {
			val = (val - step.mean) / step.scale
		}
		x = append(x, val)
	}
	return x, nil
}
