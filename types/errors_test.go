package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NewError(ErrorKindUpstream, "request failed", errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("analyze: %w", err)

	assert.ErrorIs(t, wrapped, ErrUpstream)
	assert.NotErrorIs(t, wrapped, ErrMalformedResponse)
	assert.Equal(t, ErrorKindUpstream, KindOf(wrapped))
	assert.Equal(t, ErrorKindUnknown, KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: ErrorKindEmptyCorpus}, "EmptyCorpus"},
		{"with message", NewError(ErrorKindEmptyInput, "prompt is blank", nil), "EmptyInput: prompt is blank"},
		{"with cause", NewError(ErrorKindMalformedResponse, "", errors.New("eof")), "MalformedResponse: eof"},
		{"full", NewError(ErrorKindDimensionMismatch, "entry 2", errors.New("3 != 4")), "DimensionMismatch (entry 2): 3 != 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestHintsDistinguishUpstreamFromMalformed(t *testing.T) {
	upstream := NewError(ErrorKindUpstream, "", nil)
	malformed := NewError(ErrorKindMalformedResponse, "", nil)

	assert.Contains(t, upstream.Hint(), "API key")
	assert.Contains(t, malformed.Hint(), "internal inconsistency")
	assert.NotEqual(t, upstream.Hint(), malformed.Hint())
}

func TestConfigurationDefect(t *testing.T) {
	assert.True(t, ErrEmptyCorpus.ConfigurationDefect())
	assert.True(t, ErrDimensionMismatch.ConfigurationDefect())
	assert.False(t, ErrUpstream.ConfigurationDefect())
	assert.False(t, ErrEmptyInput.ConfigurationDefect())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Remote ")
	assert.NoError(t, err)
	assert.Equal(t, ModeRemote, m)

	_, err = ParseMode("hybrid")
	assert.Error(t, err)
}
