package graph

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// NumericJacobians differentiates e.ComputeError with central finite differences, perturbing
// each connected vertex through Oplus. Vertices are pushed and popped around every evaluation so
// they hold their original estimates again on return, but the estimates do change while this
// runs: do not evaluate edges sharing these vertices concurrently.
func NumericJacobians(e Edge) ([]*mat.Dense, error) {
	vertices := e.Vertices()
	jacobians := make([]*mat.Dense, len(vertices))
	for i, v := range vertices {
		j := mat.NewDense(e.Dimension(), v.Dimension(), nil)
		var evalErr error
		fd.Jacobian(j, func(y, x []float64) {
			v.Push()
			v.Oplus(x)
			residual, err := e.ComputeError()
			if popErr := v.Pop(); popErr != nil && err == nil {
				err = popErr
			}
			if err != nil {
				if evalErr == nil {
					evalErr = err
				}
				return
			}
			copy(y, residual.RawVector().Data)
		}, make([]float64, v.Dimension()), &fd.JacobianSettings{Formula: fd.Central})
		if evalErr != nil {
			return nil, errors.Wrapf(evalErr, "vertex %d", v.ID())
		}
		jacobians[i] = j
	}
	return jacobians, nil
}
