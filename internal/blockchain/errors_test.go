package blockchain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err      error
		kind     Kind
		sentinel error
	}{
		{NetworkError("getBalance", errors.New("connection refused")), KindNetwork, ErrNetwork},
		{DecodeError("getBalance", errors.New("bad json")), KindDecode, ErrDecode},
		{ProtocolError("getBalance", errors.New("missing result")), KindProtocol, ErrProtocol},
		{ValidationError("append", errors.New("amount must be positive")), KindValidation, ErrValidation},
		{NotFoundError("getTransaction", nil), KindNotFound, ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tc.err)

			assert.Equal(t, tc.kind, KindOf(wrapped))
			assert.ErrorIs(t, wrapped, tc.sentinel)
			for _, other := range kindSentinels {
				if other != tc.sentinel {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NetworkError("op", errors.New("timeout"))))
	assert.False(t, IsRetryable(ProtocolError("op", errors.New("rpc error"))))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
