package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppError_CreatesErrorWithCorrectFields(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := NewAppError(baseErr, "custom message", CodeNotFound)

	assert.Equal(t, baseErr, appErr.Err)
	assert.Equal(t, "custom message", appErr.Message)
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestAppError_Error_ReturnsBaseErrorWhenNoMessage(t *testing.T) {
	appErr := NewAppError(errors.New("base error"), "", CodeNotFound)

	assert.Equal(t, "base error", appErr.Error())
}

func TestAppError_CanBeUnwrappedWithErrorsIs(t *testing.T) {
	appErr := NewAppError(ErrNotFound, "test", CodeNotFound)

	assert.True(t, errors.Is(appErr, ErrNotFound))
}

func TestWrap_ReturnsNilForNilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Contains(t, Wrap(ErrParse, "context").Error(), "context: parse error")
}

func TestStageError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("i/o timeout")
	err := fmt.Errorf("cycle failed: %w", NewPersistenceError("m1", cause))

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrDispatch))

	stageErr := GetStageError(err)
	require.NotNil(t, stageErr)
	assert.Equal(t, StagePersist, stageErr.Stage)
	assert.Equal(t, "m1", stageErr.Identity)
	assert.Equal(t, "persist [m1]: persistence error: i/o timeout", stageErr.Error())
}

func TestStageError_CycleLevelMessage(t *testing.T) {
	err := NewConnectionError(StageFetch, errors.New("dial tcp: refused"))

	assert.Equal(t, "fetch: connection error: dial tcp: refused", err.Error())
	assert.Empty(t, err.Identity)
}

func TestStageError_Constructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name  string
		err   *StageError
		kind  error
		stage Stage
	}{
		{"parse", NewParseError("id", cause), ErrParse, StageParse},
		{"classification", NewClassificationFallbackError("id", cause), ErrClassificationFallback, StageClassify},
		{"generation", NewGenerationError("id", cause), ErrGeneration, StageCompose},
		{"dispatch", NewDispatchError("id", cause), ErrDispatch, StageDispatch},
		{"persistence", NewPersistenceError("id", cause), ErrPersistence, StagePersist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.stage, tt.err.Stage)
		})
	}
}

func TestIsFatal_OnlyPersistence(t *testing.T) {
	cause := errors.New("x")

	assert.True(t, IsFatal(NewPersistenceError("a", cause)))
	assert.False(t, IsFatal(NewDispatchError("a", cause)))
	assert.False(t, IsFatal(NewParseError("a", cause)))
	assert.False(t, IsFatal(NewConnectionError(StageFetch, cause)))
	assert.False(t, IsFatal(nil))
}

func TestIsNotFound_ReturnsTrueForNotFoundErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrNotFound", ErrNotFound, true},
		{"ErrMessageNotFound", ErrMessageNotFound, true},
		{"ErrKnowledgeNotFound", ErrKnowledgeNotFound, true},
		{"wrapped ErrNotFound", Wrap(ErrNotFound, "context"), true},
		{"other error", errors.New("other"), false},
		{"ErrDuplicateEntry", ErrDuplicateEntry, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestGetErrorCode_ReturnsCorrectCode(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotFound", ErrNotFound, CodeNotFound},
		{"ErrMessageNotFound", ErrMessageNotFound, CodeNotFound},
		{"ErrDuplicateEntry", ErrDuplicateEntry, CodeDuplicateEntry},
		{"ErrInvalidInput", ErrInvalidInput, CodeInvalidInput},
		{"ErrUnauthorized", ErrUnauthorized, CodeUnauthorized},
		{"ErrForbidden", ErrForbidden, CodeForbidden},
		{"ErrInvalidTransition", ErrInvalidTransition, CodeInvalidTransition},
		{"ErrCycleInProgress", ErrCycleInProgress, CodeCycleInProgress},
		{"connection", NewConnectionError(StageFetch, cause), CodeConnection},
		{"dispatch", NewDispatchError("m", cause), CodeDispatch},
		{"persistence", NewPersistenceError("m", cause), CodePersistence},
		{"app error code wins", NewAppError(cause, "custom", CodeForbidden), CodeForbidden},
		{"unknown error", errors.New("unknown"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCode(tt.err))
		})
	}
}
