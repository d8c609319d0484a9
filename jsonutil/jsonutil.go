// Package jsonutil wraps encoding/json with typed errors and strict
// single-document decoding.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	errEmptyInput   = errors.New("empty input")
	errTrailingData = errors.New("trailing data after JSON value")
)

// EncodeError reports a value that could not be encoded.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "failed to encode as JSON: " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError reports input that could not be decoded. Offset is the byte
// offset of the failure when known, otherwise -1.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return "failed to decode JSON: " + e.Err.Error()
	}
	return fmt.Sprintf("failed to decode JSON at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type encodeOptions struct {
	prefix     string
	indent     string
	escapeHTML bool
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeOptions)

// Indent formats output like json.MarshalIndent.
func Indent(prefix, indent string) EncodeOption {
	return func(o *encodeOptions) {
		o.prefix = prefix
		o.indent = indent
	}
}

// EscapeHTML controls escaping of <, > and & inside strings. It is off by
// default.
func EscapeHTML(on bool) EncodeOption {
	return func(o *encodeOptions) {
		o.escapeHTML = on
	}
}

// Encode returns the JSON encoding of v without a trailing newline.
func Encode(v any, opts ...EncodeOption) ([]byte, error) {
	var o encodeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(o.escapeHTML)
	if o.prefix != "" || o.indent != "" {
		enc.SetIndent(o.prefix, o.indent)
	}

	if err := enc.Encode(v); err != nil {
		return nil, &EncodeError{Err: err}
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Decode parses exactly one JSON document from data into v. Whitespace may
// surround the document; anything else after it is an error.
func Decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := dec.Decode(v); err != nil {
		return newDecodeError(err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &DecodeError{Offset: dec.InputOffset(), Err: errTrailingData}
	}

	return nil
}

// DecodeMap decodes a JSON object into a generic map. Numbers are kept as
// json.Number so large integers survive.
func DecodeMap(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, newDecodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Offset: dec.InputOffset(), Err: errTrailingData}
	}
	if m == nil {
		return nil, &DecodeError{Offset: -1, Err: errors.New("document is not an object")}
	}

	return m, nil
}

func newDecodeError(err error) *DecodeError {
	if errors.Is(err, io.EOF) {
		return &DecodeError{Offset: -1, Err: errEmptyInput}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &DecodeError{Offset: syntaxErr.Offset, Err: err}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{Offset: typeErr.Offset, Err: err}
	}

	return &DecodeError{Offset: -1, Err: err}
}
