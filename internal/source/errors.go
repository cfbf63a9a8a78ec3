package source

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sells-group/ratings-cli/internal/model"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	// KindConfigurationMissing means the provider has no credentials.
	KindConfigurationMissing ErrorKind = "configuration_missing"
	// KindNetwork covers transport errors, timeouts and non-2xx responses.
	KindNetwork ErrorKind = "network"
	// KindParse means the response or page could not be decoded.
	KindParse ErrorKind = "parse"
)

// FetchError is returned by fetchers when an attempt fails.
type FetchError struct {
	Source model.Source
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source: %s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("source: %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the FetchError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsConfigurationMissing reports whether err says the provider is not configured.
func IsConfigurationMissing(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindConfigurationMissing
}

// ConfigurationMissing returns the error for a provider without credentials.
func ConfigurationMissing(src model.Source) *FetchError {
	return &FetchError{Source: src, Kind: KindConfigurationMissing}
}

func networkError(src model.Source, err error) *FetchError {
	return &FetchError{Source: src, Kind: KindNetwork, Err: err}
}

func parseError(src model.Source, err error) *FetchError {
	return &FetchError{Source: src, Kind: KindParse, Err: err}
}

// classify maps a client error to a kind: undecodable bodies are parse
// failures, everything else is a network failure.
func classify(src model.Source, err error) *FetchError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return parseError(src, err)
	}
	return networkError(src, err)
}
