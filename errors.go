package kmersig

import "fmt"

// ErrorClass is the failure taxonomy from spec.md section 7: usage,
// input, config, io, internal. Usage and config failures should
// terminate a CLI before any work starts; input failures are per
// record and recoverable; io failures during output surface as a
// non-zero exit at the end; internal failures abort without attempting
// to salvage partial output.
type ErrorClass int

const (
	ClassUsage ErrorClass = iota
	ClassInput
	ClassConfig
	ClassIO
	ClassInternal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassUsage:
		return "usage"
	case ClassInput:
		return "input"
	case ClassConfig:
		return "config"
	case ClassIO:
		return "io"
	case ClassInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ClassifiedError attaches an ErrorClass to an underlying error, so
// callers (in particular cmd/*/main.go) can choose the correct process
// exit code without re-parsing error strings.
type ClassifiedError struct {
	Class ErrorClass
	Err   error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

func classify(class ErrorClass, format string, args ...interface{}) error {
	return &ClassifiedError{Class: class, Err: fmt.Errorf(format, args...)}
}

// InputError reports a malformed or rejected input record (bad fasta
// residue, unparseable function-map line). The caller should skip the
// offending record and continue.
func InputError(format string, args ...interface{}) error {
	return classify(ClassInput, format, args...)
}

// ConfigError reports a configuration problem discovered before real
// work begins (missing index file, missing "hypothetical protein").
func ConfigError(format string, args ...interface{}) error {
	return classify(ClassConfig, format, args...)
}

// IOError reports an open/read/write/mmap failure.
func IOError(format string, args ...interface{}) error {
	return classify(ClassIO, format, args...)
}

// InternalError reports an assertion violation or otherwise impossible
// state. The system does not attempt to recover partial output after
// one of these.
func InternalError(format string, args ...interface{}) error {
	return classify(ClassInternal, format, args...)
}
