package graph

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sba/logging"
	"go.viam.com/sba/utils"
)

// Evaluation is the linearization of a single edge at the current vertex estimates.
type Evaluation struct {
	Error     *mat.VecDense
	Jacobians []*mat.Dense
	Chi2      float64
	// Valid is false when the error or any Jacobian holds a NaN or an infinity, which is how a
	// point at zero depth shows up.
	Valid bool
}

// Chi2 returns eᵀ Ω e.
func Chi2(e *mat.VecDense, info *mat.SymDense) float64 {
	return mat.Inner(e, info, e)
}

// Evaluate computes the error, Jacobians and chi² of e.
func Evaluate(e Edge) (Evaluation, error) {
	residual, err := e.ComputeError()
	if err != nil {
		return Evaluation{}, err
	}
	jacobians, err := e.Linearize()
	if err != nil {
		return Evaluation{}, err
	}
	if len(jacobians) != e.NumVertices() {
		return Evaluation{}, errors.Errorf("got %d Jacobian blocks for %d vertices", len(jacobians), e.NumVertices())
	}
	eval := Evaluation{
		Error:     residual,
		Jacobians: jacobians,
		Chi2:      Chi2(residual, e.Information()),
		Valid:     isFinite(residual),
	}
	for _, j := range jacobians {
		eval.Valid = eval.Valid && isFinite(j)
	}
	return eval, nil
}

type evaluateOptions struct {
	parallelism int
}

// EvaluateOption configures EvaluateAll.
type EvaluateOption func(*evaluateOptions)

// WithParallelism caps the number of goroutines EvaluateAll uses. Non-positive values keep the
// default of utils.ParallelFactor.
func WithParallelism(n int) EvaluateOption {
	return func(opts *evaluateOptions) {
		opts.parallelism = n
	}
}

// EvaluateAll evaluates every edge in parallel. Results are indexed like edges. Edges that fail
// leave a zero Evaluation behind and their errors are combined in the returned error.
func EvaluateAll(ctx context.Context, edges []Edge, logger logging.Logger, opts ...EvaluateOption) ([]Evaluation, error) {
	var options evaluateOptions
	for _, opt := range opts {
		opt(&options)
	}

	results := make([]Evaluation, len(edges))
	invalid := atomic.NewInt64(0)
	err := utils.GroupWorkParallelN(
		ctx,
		options.parallelism,
		len(edges),
		func(numGroups int) {
			logger.Debugw("evaluating edges", "edges", len(edges), "groups", numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) error {
				eval, err := Evaluate(edges[workNum])
				if err != nil {
					return errors.Wrapf(err, "edge %d", workNum)
				}
				if !eval.Valid {
					invalid.Inc()
					logger.Debugw("edge evaluated to a non finite value", "edge", workNum, "error", eval.Error.RawVector().Data)
				}
				results[workNum] = eval
				return nil
			}, nil
		},
	)
	if n := invalid.Load(); n > 0 {
		logger.Infow("some edges did not evaluate to finite values", "invalid", n, "edges", len(edges))
	}
	return results, err
}

func isFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
