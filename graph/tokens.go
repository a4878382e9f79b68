// Package graph holds the element contracts for bundle-adjustment vertices, edges and shared
// parameters, and the plain-text line format they are stored in.
//
// A record is one line: a tag naming the element type, an id (vertices and parameters) or the ids
// of the connected vertices (edges), then the element payload. Every field is separated by
// whitespace.
package graph

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnexpectedEndOfRecord is returned when a record has fewer fields than its element needs.
var ErrUnexpectedEndOfRecord = errors.New("unexpected end of record")

// ErrTrailingFields is returned when a record has more fields than its element consumes.
var ErrTrailingFields = errors.New("unexpected trailing fields")

// Tokens is a cursor over the whitespace separated fields of a single record.
type Tokens struct {
	fields []string
	pos    int
}

// NewTokens splits a record into fields.
func NewTokens(record string) *Tokens {
	return &Tokens{fields: strings.Fields(record)}
}

// Next returns the next raw field.
func (t *Tokens) Next() (string, error) {
	if t.pos >= len(t.fields) {
		return "", ErrUnexpectedEndOfRecord
	}
	field := t.fields[t.pos]
	t.pos++
	return field, nil
}

// Float parses the next field as a float64.
func (t *Tokens) Float() (float64, error) {
	field, err := t.Next()
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "field %d", t.pos)
	}
	return value, nil
}

// Int parses the next field as an int.
func (t *Tokens) Int() (int, error) {
	field, err := t.Next()
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, errors.Wrapf(err, "field %d", t.pos)
	}
	return value, nil
}

// Floats parses the next n fields.
func (t *Tokens) Floats(n int) ([]float64, error) {
	values := make([]float64, n)
	for i := range values {
		v, err := t.Float()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Remaining is the number of fields not yet consumed.
func (t *Tokens) Remaining() int {
	return len(t.fields) - t.pos
}
