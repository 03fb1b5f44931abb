package scoring

import (
	"fmt"
	"math"
)

type classifier interface {
	probability(x []float64) float64
}

func compileClassifier(spec ClassifierSpec, inputs []string) (classifier, error) {
	index := make(map[string]int, len(inputs))
	for i, name := range inputs {
		index[name] = i
	}

	switch spec.Kind {
	case KindLogistic:
		return compileLogistic(spec, index, len(inputs))
	case KindGradientBoosting:
		return compileBoosting(spec, index)
	case KindStacking:
		return compileStacking(spec, inputs)
	case "":
		return nil, fmt.Errorf("%w: classifier kind is required", ErrInvalidArtifact)
	default:
		return nil, fmt.Errorf("%w: unknown classifier kind %q", ErrInvalidArtifact, spec.Kind)
	}
}

type logistic struct {
	intercept float64
	weights   []float64
}

func compileLogistic(spec ClassifierSpec, index map[string]int, width int) (*logistic, error) {
	if len(spec.Coefficients) == 0 {
		return nil, fmt.Errorf("%w: logistic classifier has no coefficients", ErrInvalidArtifact)
	}
	weights := make([]float64, width)
	for name, w := range spec.Coefficients {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: coefficient for unknown feature %q", ErrInvalidArtifact, name)
		}
		weights[i] = w
	}
	return &logistic{intercept: spec.Intercept, weights: weights}, nil
}

func (l *logistic) probability(x []float64) float64 {
	z := l.intercept
	for i, w := range l.weights {
		z += w * x[i]
	}
	return sigmoid(z)
}

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	leaf      bool
	value     float64
}

type tree []node

func (t tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] < n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type boosting struct {
	base         float64
	learningRate float64
	trees        []tree
}

func compileBoosting(spec ClassifierSpec, index map[string]int) (*boosting, error) {
	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("%w: gradient boosting classifier has no trees", ErrInvalidArtifact)
	}
	lr := spec.LearningRate
	if lr == 0 {
		lr = 1
	}
	out := &boosting{base: spec.BaseScore, learningRate: lr, trees: make([]tree, 0, len(spec.Trees))}
	for ti, ts := range spec.Trees {
		if len(ts.Nodes) == 0 {
			return nil, fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, ti)
		}
		t := make(tree, len(ts.Nodes))
		for ni, ns := range ts.Nodes {
			if ns.Leaf != nil {
				t[ni] = node{leaf: true, value: *ns.Leaf}
				continue
			}
			fi, ok := index[ns.Feature]
			if !ok {
				return nil, fmt.Errorf("%w: tree %d node %d splits on unknown feature %q", ErrInvalidArtifact, ti, ni, ns.Feature)
			}
			if ns.Left <= ni || ns.Right <= ni || ns.Left >= len(ts.Nodes) || ns.Right >= len(ts.Nodes) {
				return nil, fmt.Errorf("%w: tree %d node %d has invalid children", ErrInvalidArtifact, ti, ni)
			}
			t[ni] = node{feature: fi, threshold: ns.Threshold, left: ns.Left, right: ns.Right}
		}
		out.trees = append(out.trees, t)
	}
	return out, nil
}

func (b *boosting) probability(x []float64) float64 {
	margin := 0.0
	for _, t := range b.trees {
		margin += t.eval(x)
	}
	return sigmoid(b.base + b.learningRate*margin)
}

type stacking struct {
	estimators  []classifier
	final       classifier
	passthrough bool
}

func compileStacking(spec ClassifierSpec, inputs []string) (*stacking, error) {
	if len(spec.Estimators) == 0 {
		return nil, fmt.Errorf("%w: stacking classifier has no estimators", ErrInvalidArtifact)
	}
	if spec.FinalEstimator == nil {
		return nil, fmt.Errorf("%w: stacking classifier has no final estimator", ErrInvalidArtifact)
	}

	out := &stacking{passthrough: spec.Passthrough}
	finalInputs := make([]string, 0, len(spec.Estimators)+len(inputs))
	seen := make(map[string]bool, len(spec.Estimators))
	for i, es := range spec.Estimators {
		est, err := compileClassifier(es, inputs)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		out.estimators = append(out.estimators, est)
		name := es.Name
		if name == "" {
			name = fmt.Sprintf("estimator_%d", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate estimator name %q", ErrInvalidArtifact, name)
		}
		seen[name] = true
		finalInputs = append(finalInputs, name)
	}
	if spec.Passthrough {
		finalInputs = append(finalInputs, inputs...)
	}

	final, err := compileClassifier(*spec.FinalEstimator, finalInputs)
	if err != nil {
		return nil, fmt.Errorf("final estimator: %w", err)
	}
	out.final = final
	return out, nil
}

func (s *stacking) probability(x []float64) float64 {
	meta := make([]float64, 0, len(s.estimators)+len(x))
	for _, est := range s.estimators {
		meta = append(meta, est.probability(x))
	}
	if s.passthrough {
		meta = append(meta, x...)
	}
	return s.final.probability(meta)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
