package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrMessageNotFound indicates the support message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrKnowledgeNotFound indicates the knowledge entry was not found
	ErrKnowledgeNotFound = errors.New("knowledge entry not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")

	// ErrInvalidTransition indicates the message status does not allow the change
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCycleInProgress indicates another ingestion cycle holds the mailbox
	ErrCycleInProgress = errors.New("ingestion cycle already in progress")
)

// Pipeline failure kinds
var (
	// ErrConnection indicates the mailbox or outbound transport is unreachable
	ErrConnection = errors.New("connection error")

	// ErrParse indicates a single malformed source message
	ErrParse = errors.New("parse error")

	// ErrClassificationFallback indicates the external classifier was unavailable
	ErrClassificationFallback = errors.New("classification fallback error")

	// ErrGeneration indicates the external reply generator was unavailable
	ErrGeneration = errors.New("generation error")

	// ErrDispatch indicates an outbound send failed
	ErrDispatch = errors.New("dispatch error")

	// ErrPersistence indicates the store was unavailable
	ErrPersistence = errors.New("persistence error")
)

// Error codes for API responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateEntry    = "DUPLICATE_ENTRY"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeInvalidTransition = "INVALID_STATUS"
	CodeCycleInProgress   = "CYCLE_IN_PROGRESS"
	CodeConnection        = "MAILBOX_UNAVAILABLE"
	CodeParse             = "PARSE_ERROR"
	CodeGeneration        = "GENERATION_FAILED"
	CodeDispatch          = "DISPATCH_FAILED"
	CodePersistence       = "STORE_UNAVAILABLE"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Stage names the pipeline step where a StageError happened
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageParse    Stage = "parse"
	StageClassify Stage = "classify"
	StageCompose  Stage = "compose"
	StagePersist  Stage = "persist"
	StageDispatch Stage = "dispatch"
)

// StageError carries the failure kind, the pipeline stage, the identity of the
// affected message (empty for cycle-level failures) and the underlying cause.
// errors.Is matches both the kind sentinel and the cause.
type StageError struct {
	Kind     error
	Stage    Stage
	Identity string
	Err      error
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e.Identity != "" {
		return fmt.Sprintf("%s [%s]: %v: %v", e.Stage, e.Identity, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the kind sentinel and the cause
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newStageError(kind error, stage Stage, identity string, cause error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Identity: identity, Err: cause}
}

// NewConnectionError reports an unreachable mailbox or transport
func NewConnectionError(stage Stage, cause error) *StageError {
	return newStageError(ErrConnection, stage, "", cause)
}

// NewParseError reports a malformed source message
func NewParseError(identity string, cause error) *StageError {
	return newStageError(ErrParse, StageParse, identity, cause)
}

// NewClassificationFallbackError reports a failed external classification
func NewClassificationFallbackError(identity string, cause error) *StageError {
	return newStageError(ErrClassificationFallback, StageClassify, identity, cause)
}

// NewGenerationError reports a failed reply generation
func NewGenerationError(identity string, cause error) *StageError {
	return newStageError(ErrGeneration, StageCompose, identity, cause)
}

// NewDispatchError reports a failed outbound send
func NewDispatchError(identity string, cause error) *StageError {
	return newStageError(ErrDispatch, StageDispatch, identity, cause)
}

// NewPersistenceError reports an unavailable store
func NewPersistenceError(identity string, cause error) *StageError {
	return newStageError(ErrPersistence, StagePersist, identity, cause)
}

// GetStageError extracts a StageError from err if present
func GetStageError(err error) *StageError {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}
	return nil
}

// IsFatal reports whether err must end the current ingestion cycle
func IsFatal(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrKnowledgeNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrCycleInProgress):
		return CodeCycleInProgress
	case errors.Is(err, ErrConnection):
		return CodeConnection
	case errors.Is(err, ErrParse):
		return CodeParse
	case errors.Is(err, ErrGeneration):
		return CodeGeneration
	case errors.Is(err, ErrDispatch):
		return CodeDispatch
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeInternalError
	}
}
