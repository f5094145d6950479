package coreerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapIsMatchesSentinel(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(EngineFailed, "analysis failed", cause)

	assert.True(t, errors.Is(err, ErrEngineFailed))
	assert.False(t, errors.Is(err, ErrEngineTimeout))
	assert.True(t, errors.Is(err, cause))
}

func TestWrapfMessage(t *testing.T) {
	err := Wrapf(EngineTimeout, nil, "acquire after %d attempts", 3)
	assert.Equal(t, "engine_timeout: acquire after 3 attempts", err.Error())
}

func TestWrapWithoutCauseUnwrapsToSentinel(t *testing.T) {
	err := Wrap(InvalidPosition, "bad fen", nil)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}
