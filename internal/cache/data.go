package cache

import "fmt"

// Entries maps a request identity to the raw response body stored for it.
type Entries map[string]string

// Clone returns an independent copy of e. A nil receiver yields an empty map.
func (e Entries) Clone() Entries {
	out := make(Entries, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Param is a single query parameter whose value has already been coerced
// to its string form.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered list of query parameters. Iteration order is
// insertion order, and both the cache key and the query string follow it.
type Params []Param

// NewParam coerces value to its default string representation.
func NewParam(name string, value any) Param {
	return Param{Name: name, Value: fmt.Sprint(value)}
}

// With returns a copy of p with one more parameter appended.
func (p Params) With(name string, value any) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	return append(out, NewParam(name, value))
}
