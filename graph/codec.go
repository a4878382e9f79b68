package graph

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FormatFloat renders v with the fewest digits that parse back to the same value.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFloats writes each value preceded by a single space.
func WriteFloats(w io.Writer, values ...float64) error {
	buf := make([]byte, 0, 24*len(values))
	for _, v := range values {
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	_, err := w.Write(buf)
	return err
}

// WriteInts writes each value preceded by a single space.
func WriteInts(w io.Writer, values ...int) error {
	buf := make([]byte, 0, 8*len(values))
	for _, v := range values {
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	_, err := w.Write(buf)
	return err
}

// ReadUpperTriangle reads the upper triangle of an n×n symmetric matrix in row-major order and
// mirrors it to the lower triangle.
func ReadUpperTriangle(t *Tokens, n int) (*mat.SymDense, error) {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, err := t.Float()
			if err != nil {
				return nil, errors.Wrap(err, "reading information matrix")
			}
			m.SetSym(i, j, v)
		}
	}
	return m, nil
}

// WriteUpperTriangle writes the upper triangle of m in row-major order.
func WriteUpperTriangle(w io.Writer, m *mat.SymDense) error {
	n := m.SymmetricDim()
	values := make([]float64, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			values = append(values, m.At(i, j))
		}
	}
	return WriteFloats(w, values...)
}

// NewIdentityInformation returns an n×n identity information matrix.
func NewIdentityInformation(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}
