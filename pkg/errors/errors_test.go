package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	err := New(ErrorTypeDuplicate, "2 records for %s", "abc")
	wrapped := fmt.Errorf("save abc: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrDuplicate))
	assert.False(t, stderrors.Is(wrapped, ErrTransient))
	assert.Equal(t, ErrorTypeDuplicate, TypeOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(ErrorTypeTransient, cause, "query catalog").WithCode(503)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsTransient(err))
	assert.Equal(t, "query catalog (code 503): connection reset", err.Error())
}

func TestTypeOfUntyped(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.False(t, IsTransient(nil))
}

func TestSentinelMessage(t *testing.T) {
	assert.Equal(t, "schema error", ErrSchema.Error())
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, true},
		{409, true},
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableStatusCode(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeTransient))
	assert.False(t, IsRetryable(ErrorTypeSchema))
	assert.False(t, IsRetryable(ErrorTypeDuplicate))
}
