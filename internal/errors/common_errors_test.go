package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err: &AppError{
				Type:    ErrTypeParsing,
				Message: "open xlsx",
				Cause:   errors.New("zip: not a valid zip file"),
			},
			want: "[PARSING] open xlsx: zip: not a valid zip file",
		},
		{
			name: "without cause",
			err: &AppError{
				Type:    ErrTypeStorage,
				Message: "persist dataset",
			},
			want: "[STORAGE] persist dataset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	appErr := NewStorageError("persist dataset", cause)

	assert.ErrorIs(t, appErr, cause)

	var unwrapped *AppError
	require.True(t, errors.As(appErr, &unwrapped))
	assert.Equal(t, ErrTypeStorage, unwrapped.Type)
}

func TestAppError_WithContext(t *testing.T) {
	appErr := NewParsingError("read csv", nil).
		WithContext("file_name", "sales.csv").
		WithContext("row", 12)

	assert.Equal(t, "sales.csv", appErr.Context["file_name"])
	assert.Equal(t, 12, appErr.Context["row"])
}

func TestAppError_WithContext_NilMap(t *testing.T) {
	appErr := &AppError{Type: ErrTypeStorage, Message: "no context map"}
	appErr.WithContext("key", "value")
	assert.Equal(t, "value", appErr.Context["key"])
}

func TestErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"parsing", NewParsingError("msg", cause), ErrTypeParsing},
		{"storage", NewStorageError("msg", cause), ErrTypeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, "msg", tt.err.Message)
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}
