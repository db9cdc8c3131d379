// Package classifier implements a multinomial logistic regression fitted with
// L-BFGS. A fitted model is read-only and safe for concurrent Predict calls.
package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ErrNotFitted is returned when predicting with a model that has not been fitted
var ErrNotFitted = errors.New("classifier: model is not fitted")

const (
	DefaultC         = 1.0
	DefaultMaxIter   = 200
	DefaultTolerance = 1e-4
)

// Option configures a LogisticRegression
type Option func(*LogisticRegression)

// WithC sets the inverse L2 regularisation strength
func WithC(c float64) Option {
	return func(m *LogisticRegression) {
		if c > 0 {
			m.c = c
		}
	}
}

// WithMaxIter caps the number of L-BFGS iterations
func WithMaxIter(n int) Option {
	return func(m *LogisticRegression) {
		if n > 0 {
			m.maxIter = n
		}
	}
}

// WithTolerance sets the gradient norm at which fitting stops
func WithTolerance(tol float64) Option {
	return func(m *LogisticRegression) {
		if tol > 0 {
			m.tol = tol
		}
	}
}

// LogisticRegression is a softmax classifier with an unpenalised intercept
type LogisticRegression struct {
	c       float64
	maxIter int
	tol     float64

	weights   *mat.Dense // classes x features
	intercept []float64
	classes   int
	features  int

	iterations int
	status     optimize.Status
}

// NewLogisticRegression creates an unfitted model
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	m := &LogisticRegression{
		c:       DefaultC,
		maxIter: DefaultMaxIter,
		tol:     DefaultTolerance,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fit trains the model on X (rows x features) and integer labels y in [0, k).
// Weights start at zero so the result is deterministic for the same data.
func (m *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return fmt.Errorf("classifier: empty training matrix")
	}
	if len(y) != n {
		return fmt.Errorf("classifier: %d labels for %d rows", len(y), n)
	}

	k := 0
	for i, label := range y {
		if label < 0 {
			return fmt.Errorf("classifier: negative label %d at row %d", label, i)
		}
		if label+1 > k {
			k = label + 1
		}
	}
	if k < 2 {
		return fmt.Errorf("classifier: need at least 2 classes, got %d", k)
	}

	obj := &objective{
		x:       mat.DenseCopyOf(X),
		y:       y,
		classes: k,
		alpha:   1 / m.c,
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			return obj.evaluate(params, nil)
		},
		Grad: func(grad, params []float64) {
			obj.evaluate(params, grad)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   m.maxIter,
		GradientThreshold: m.tol,
	}

	initial := make([]float64, k*d+k)
	result, err := optimize.Minimize(problem, initial, settings, &optimize.LBFGS{})
	if err != nil {
		// A line search that stalls near the optimum still leaves a usable point.
		if result == nil || !allFinite(result.X) {
			return fmt.Errorf("classifier: optimisation failed: %w", err)
		}
	}

	m.weights = mat.NewDense(k, d, append([]float64(nil), result.X[:k*d]...))
	m.intercept = append([]float64(nil), result.X[k*d:]...)
	m.classes = k
	m.features = d
	m.iterations = result.Stats.MajorIterations
	m.status = result.Status

	return nil
}

// Predict returns the most probable class index for a single sample
func (m *LogisticRegression) Predict(x []float64) (int, error) {
	scores, err := m.decision(x)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(scores), nil
}

// PredictProba returns the class probabilities for a single sample
func (m *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}
	lse := floats.LogSumExp(scores)
	for i := range scores {
		scores[i] = math.Exp(scores[i] - lse)
	}
	return scores, nil
}

// Score returns the mean accuracy on the given rows and labels
func (m *LogisticRegression) Score(X mat.Matrix, y []int) (float64, error) {
	n, d := X.Dims()
	if len(y) != n {
		return 0, fmt.Errorf("classifier: %d labels for %d rows", len(y), n)
	}
	if n == 0 {
		return 0, fmt.Errorf("classifier: empty matrix")
	}

	row := make([]float64, d)
	correct := 0
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		pred, err := m.Predict(row)
		if err != nil {
			return 0, err
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Classes returns the number of classes seen during Fit
func (m *LogisticRegression) Classes() int {
	return m.classes
}

// Iterations returns the L-BFGS iterations used by the last Fit
func (m *LogisticRegression) Iterations() int {
	return m.iterations
}

// Status returns the optimiser termination status of the last Fit
func (m *LogisticRegression) Status() optimize.Status {
	return m.status
}

func (m *LogisticRegression) decision(x []float64) ([]float64, error) {
	if m.weights == nil {
		return nil, ErrNotFitted
	}
	if len(x) != m.features {
		return nil, fmt.Errorf("classifier: expected %d features, got %d", m.features, len(x))
	}

	scores := make([]float64, m.classes)
	sample := mat.NewVecDense(len(x), x)
	for c := 0; c < m.classes; c++ {
		scores[c] = mat.Dot(m.weights.RowView(c), sample) + m.intercept[c]
	}
	return scores, nil
}

// objective is the penalised multinomial cross-entropy over the whole
// training set. params holds the classes x features weights row-major,
// followed by one intercept per class.
type objective struct {
	x       *mat.Dense
	y       []int
	classes int
	alpha   float64
}

func (o *objective) evaluate(params, grad []float64) float64 {
	n, d := o.x.Dims()
	k := o.classes

	w := mat.NewDense(k, d, params[:k*d])
	b := params[k*d:]

	var z mat.Dense
	z.Mul(o.x, w.T())

	if grad != nil {
		for i := range grad {
			grad[i] = 0
		}
	}

	loss := 0.0
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			row[c] = z.At(i, c) + b[c]
		}
		lse := floats.LogSumExp(row)
		loss += lse - row[o.y[i]]

		if grad == nil {
			continue
		}
		for c := 0; c < k; c++ {
			p := math.Exp(row[c] - lse)
			if c == o.y[i] {
				p--
			}
			grad[k*d+c] += p
			for j := 0; j < d; j++ {
				grad[c*d+j] += p * o.x.At(i, j)
			}
		}
	}

	penalty := 0.0
	for idx, v := range params[:k*d] {
		penalty += v * v
		if grad != nil {
			grad[idx] += o.alpha * v
		}
	}

	return loss + 0.5*o.alpha*penalty
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return len(xs) > 0
}
