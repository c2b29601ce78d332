package scaffold

import (
	"errors"
	"fmt"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/materialize"
	"github.com/woud420/kickstart-sub000/internal/render"
)

// ComponentResult is the outcome of generating one request.
type ComponentResult struct {
	Request  component.Request
	Name     string // name used for rendering, defaulted for monorepos
	Root     string // absolute destination
	Language string // resolved canonical language
	Files    []materialize.FileResult
	Context  render.Context
	Err      error
}

// OK reports whether the component was generated.
func (r ComponentResult) OK() bool { return r.Err == nil }

// Count returns the number of file results with the given status.
func (r ComponentResult) Count(status materialize.Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Summary reports every component of a run, monorepos last.
type Summary struct {
	Components []ComponentResult
}

// Succeeded returns the components generated without error.
func (s *Summary) Succeeded() []ComponentResult {
	var out []ComponentResult
	for _, c := range s.Components {
		if c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// Failed returns the components that failed.
func (s *Summary) Failed() []ComponentResult {
	var out []ComponentResult
	for _, c := range s.Components {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// OK reports whether every component succeeded.
func (s *Summary) OK() bool {
	return len(s.Failed()) == 0
}

// Err joins the errors of every failed component, or returns nil.
func (s *Summary) Err() error {
	var all []error
	for _, c := range s.Failed() {
		all = append(all, fmt.Errorf("%s: %w", c.Request.Label(), c.Err))
	}
	return errors.Join(all...)
}
