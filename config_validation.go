package clientip

import (
	"fmt"
	"net/textproto"
	"reflect"
	"strings"
)

func (c *config) validate() error {
	if err := c.validateHeaderPriority(); err != nil {
		return err
	}

	for _, prefix := range c.excludedPrefixes {
		if !prefix.IsValid() {
			return fmt.Errorf("invalid proxy exclusion prefix %q", prefix)
		}
	}

	if isNilLogger(c.logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNilMetrics(c.metrics) {
		return fmt.Errorf("metrics cannot be nil")
	}
	return nil
}

// validateHeaderPriority accepts an empty list (fallback-only resolution)
// but rejects blank, malformed and duplicate header names.
func (c *config) validateHeaderPriority() error {
	seen := make(map[string]struct{}, len(c.headerPriority))

	for _, header := range c.headerPriority {
		trimmed := strings.TrimSpace(header)
		if trimmed == "" {
			return fmt.Errorf("header names cannot be empty")
		}
		if strings.ContainsAny(trimmed, ": \t\r\n") {
			return fmt.Errorf("invalid header name %q", header)
		}

		key := textproto.CanonicalMIMEHeaderKey(trimmed)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate header %q in priority list", header)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func isNilLogger(logger Logger) bool {
	return isNilInterface(logger)
}

func isNilMetrics(metrics Metrics) bool {
	return isNilInterface(metrics)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
