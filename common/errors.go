// Package common - error taxonomy shared across the matching pipeline.
package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoTemplates is returned when a scan is invoked without any template.
var ErrNoTemplates = errors.New("no templates supplied")

// ConfigError reports caller-supplied options that cannot be acted on:
// a missing selection criterion, an out-of-range overlap threshold, a
// malformed threshold list. These indicate caller misuse, never transient
// conditions, so they are surfaced before any scoring starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// MismatchError reports a template that cannot be matched against the
// target image: differing channel count or bit depth, or a template
// larger than the image in either dimension. Template names the offending
// template so the caller can fix the call.
type MismatchError struct {
	Template string
	Reason   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("template %q: %s", e.Template, e.Reason)
}

// Mismatchf builds a MismatchError for the named template.
func Mismatchf(template, format string, args ...interface{}) *MismatchError {
	return &MismatchError{Template: template, Reason: fmt.Sprintf(format, args...)}
}
