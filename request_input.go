package clientip

import (
	"context"
)

// HeaderValues provides access to request header values by name.
//
// Implementations should return one slice entry per received header line;
// each entry is scanned in order.
//
// Header names are requested in canonical MIME format (for example
// "X-Forwarded-For", "X-Cluster-Client-Ip").
//
// net/http's http.Header and HeaderMap satisfy this interface directly.
type HeaderValues interface {
	Values(name string) []string
}

// HeaderValuesFunc adapts a function to the HeaderValues interface.
type HeaderValuesFunc func(name string) []string

// Values implements HeaderValues.
func (f HeaderValuesFunc) Values(name string) []string {
	if f == nil {
		return nil
	}

	return f(name)
}

// RequestInput provides framework-agnostic request data for resolution.
//
// Context defaults to context.Background() when nil. RemoteAddr is the
// transport peer address, with or without a port; Path is only used for
// log attributes.
type RequestInput struct {
	Context    context.Context
	RemoteAddr string
	Path       string
	Headers    HeaderValues
}

func requestInputContext(input RequestInput) context.Context {
	if input.Context == nil {
		return context.Background()
	}

	return input.Context
}
