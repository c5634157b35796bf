package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidArgument indicates a caller supplied an unusable argument
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// UnsupportedLanguage indicates no grammar or extractor exists for a file
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// ParseFailed indicates the grammar could not produce a syntax tree
	ParseFailed ErrorCode = "PARSE_FAILED"
	// FileNotFound indicates a requested source file does not exist
	FileNotFound ErrorCode = "FILE_NOT_FOUND"
	// IndexNotFound indicates no persisted index snapshot exists yet
	IndexNotFound ErrorCode = "INDEX_NOT_FOUND"
	// IndexLocked indicates another process is writing the index
	IndexLocked ErrorCode = "INDEX_LOCKED"
	// VectorStoreUnavailable indicates the dense vector store cannot be reached
	VectorStoreUnavailable ErrorCode = "VECTOR_STORE_UNAVAILABLE"
	// VCSUnavailable indicates the project root is not a usable repository
	VCSUnavailable ErrorCode = "VCS_UNAVAILABLE"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Drilldown represents a suggested follow-up command
type Drilldown struct {
	Label   string `json:"label"`
	Command string `json:"command"`
}

// HammyError is an error with a stable code, a message and optional details.
type HammyError struct {
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Drilldowns []Drilldown `json:"drilldowns,omitempty"`
	cause      error
}

// New creates a HammyError wrapping cause (which may be nil).
func New(code ErrorCode, message string, cause error) *HammyError {
	return &HammyError{
		Code:       code,
		Message:    message,
		cause:      cause,
		Drilldowns: SuggestedDrilldowns(code),
	}
}

// Newf creates a HammyError without a cause from a format string.
func Newf(code ErrorCode, format string, args ...interface{}) *HammyError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *HammyError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HammyError) Unwrap() error {
	return e.cause
}

// Is matches another HammyError with the same code, so sentinel values
// built with New(code, "", nil) work with errors.Is.
func (e *HammyError) Is(target error) bool {
	t, ok := target.(*HammyError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *HammyError) WithDetails(details interface{}) *HammyError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first HammyError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var he *HammyError
	if stderrors.As(err, &he) {
		return he.Code
	}
	return InternalError
}

// HasCode reports whether err's chain contains a HammyError with code.
func HasCode(err error, code ErrorCode) bool {
	var he *HammyError
	for err != nil {
		if stderrors.As(err, &he) {
			if he.Code == code {
				return true
			}
			err = he.cause
			continue
		}
		return false
	}
	return false
}

var drilldowns = map[ErrorCode][]Drilldown{
	IndexNotFound: {
		{Label: "Build the index", Command: "hammy index"},
	},
	IndexLocked: {
		{Label: "Check for a running indexer", Command: "hammy status"},
	},
	VectorStoreUnavailable: {
		{Label: "Retry lexical-only", Command: "hammy search --lexical ${query}"},
	},
	VCSUnavailable: {
		{Label: "Initialise a repository", Command: "git init"},
	},
	ConfigInvalid: {
		{Label: "Show effective configuration", Command: "hammy config show"},
	},
}

// SuggestedDrilldowns returns follow-up commands for an error code
func SuggestedDrilldowns(code ErrorCode) []Drilldown {
	return drilldowns[code]
}
