package scoring

// Artifact is the serialized preprocessing-plus-classifier pipeline exported
// from the training notebook. JSON and YAML encodings share these field names.
type Artifact struct {
	ModelVersion   string           `json:"model_version" yaml:"model_version"`
	FeatureColumns []string         `json:"feature_columns" yaml:"feature_columns"`
	Preprocessor   PreprocessorSpec `json:"preprocessor" yaml:"preprocessor"`
	Classifier     ClassifierSpec   `json:"classifier" yaml:"classifier"`
	// Threshold defaults to 0.5 when omitted.
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// PreprocessorSpec mirrors a column transformer: one-hot encoders for
// categorical columns and standard scalers for numeric ones. Numeric columns
// without a scaler pass through unchanged.
type PreprocessorSpec struct {
	Categorical map[string]CategoricalSpec `json:"categorical" yaml:"categorical"`
	Numeric     map[string]ScalerSpec      `json:"numeric" yaml:"numeric"`
}

type CategoricalSpec struct {
	Categories []string `json:"categories" yaml:"categories"`
}

type ScalerSpec struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Scale float64 `json:"scale" yaml:"scale"`
}

// Classifier kinds understood by the loader.
const (
	KindLogistic         = "logistic"
	KindGradientBoosting = "gradient_boosting"
	KindStacking         = "stacking"
)

// ClassifierSpec is a tagged union keyed by Kind.
type ClassifierSpec struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// logistic
	Intercept    float64            `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Coefficients map[string]float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`

	// gradient_boosting
	BaseScore    float64    `json:"base_score,omitempty" yaml:"base_score,omitempty"`
	LearningRate float64    `json:"learning_rate,omitempty" yaml:"learning_rate,omitempty"`
	Trees        []TreeSpec `json:"trees,omitempty" yaml:"trees,omitempty"`

	// stacking
	Estimators     []ClassifierSpec `json:"estimators,omitempty" yaml:"estimators,omitempty"`
	FinalEstimator *ClassifierSpec  `json:"final_estimator,omitempty" yaml:"final_estimator,omitempty"`
	Passthrough    bool             `json:"passthrough,omitempty" yaml:"passthrough,omitempty"`
}

// TreeSpec is a flat regression tree; node 0 is the root and children always
// have a larger index than their parent.
type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes" yaml:"nodes"`
}

// NodeSpec is either a leaf (Leaf set) or a split on Feature < Threshold.
type NodeSpec struct {
	Feature   string   `json:"feature,omitempty" yaml:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Left      int      `json:"left,omitempty" yaml:"left,omitempty"`
	Right     int      `json:"right,omitempty" yaml:"right,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty" yaml:"leaf,omitempty"`
}
