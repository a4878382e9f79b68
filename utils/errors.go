package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// NewWrongNumberOfVerticesError is used when an edge is connected to the wrong number of vertices.
func NewWrongNumberOfVerticesError(expected, actual int) error {
	return errors.Errorf("expected %d vertices but got %d", expected, actual)
}
