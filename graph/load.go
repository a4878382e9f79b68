package graph

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/sba/logging"
)

const maxRecordLength = 1 << 20

type loadOptions struct {
	skipMalformed bool
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithSkipMalformed makes Load skip records it cannot build instead of failing. The errors for the
// skipped records are combined and returned with the graph.
func WithSkipMalformed() LoadOption {
	return func(opts *loadOptions) {
		opts.skipMalformed = true
	}
}

// Load reads a graph from r. Blank lines and lines starting with # are ignored; records with a tag
// that reg does not know are skipped with a warning. A record with more fields than its element
// reads is malformed (ErrTrailingFields).
func Load(r io.Reader, reg *Registry, logger logging.Logger, opts ...LoadOption) (*Graph, error) {
	var options loadOptions
	for _, opt := range opts {
		opt(&options)
	}

	g := NewGraph(logger)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLength)

	var skipped error
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := NewTokens(line)
		tag, err := tokens.Next()
		if err != nil {
			continue
		}
		elem, ok := reg.Construct(tag)
		if !ok {
			logger.Warnw("skipping record with unknown tag", "tag", tag, "line", lineNum, "group", reg.Group())
			continue
		}
		if err := g.addRecord(elem, tokens); err != nil {
			err = errors.Wrapf(err, "line %d (%s)", lineNum, tag)
			if !options.skipMalformed {
				return nil, err
			}
			logger.Warnw("skipping malformed record", "line", lineNum, "tag", tag, "error", err)
			skipped = multierr.Append(skipped, err)
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading graph")
	}
	logger.Debugw("loaded graph",
		"parameters", g.params.Len(), "vertices", len(g.vertices), "edges", len(g.edges))
	return g, skipped
}

// readPayload reads elem from tokens. Every field of the record must be consumed.
func readPayload(elem Element, tokens *Tokens) error {
	if err := elem.Read(tokens); err != nil {
		return err
	}
	if n := tokens.Remaining(); n > 0 {
		return errors.Wrapf(ErrTrailingFields, "%d unread", n)
	}
	return nil
}

// addRecord wires one parsed record into g. The cases go from the widest interface to the
// narrowest: a Vertex also has every method of a Parameter.
func (g *Graph) addRecord(elem Element, tokens *Tokens) error {
	switch e := elem.(type) {
	case Edge:
		vertices := make([]Vertex, e.NumVertices())
		for i := range vertices {
			id, err := tokens.Int()
			if err != nil {
				return err
			}
			if vertices[i], err = g.Vertex(id); err != nil {
				return err
			}
		}
		if err := e.SetVertices(vertices...); err != nil {
			return err
		}
		if err := readPayload(e, tokens); err != nil {
			return err
		}
		return g.AddEdge(e)
	case Vertex:
		id, err := tokens.Int()
		if err != nil {
			return err
		}
		e.SetID(id)
		if err := readPayload(e, tokens); err != nil {
			return err
		}
		return g.AddVertex(e)
	case Parameter:
		id, err := tokens.Int()
		if err != nil {
			return err
		}
		e.SetID(id)
		if err := readPayload(e, tokens); err != nil {
			return err
		}
		return g.AddParameter(e)
	default:
		return errors.Errorf("cannot add element of type %T to a graph", elem)
	}
}
