package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndKindOf(t *testing.T) {
	err := New(RateLimited, "quota exceeded for %s", "google")
	assert.Equal(t, RateLimited, KindOf(err))
	assert.Equal(t, "rate_limited: quota exceeded for google", err.Error())
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Upstream, fmt.Errorf("calling API: %w", cause))

	assert.Equal(t, Upstream, KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(Upstream, nil))
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	inner := New(RateLimited, "slow down")
	outer := fmt.Errorf("provider google: %w", inner)

	assert.Equal(t, RateLimited, KindOf(outer))
	assert.True(t, IsRateLimited(outer))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.False(t, IsRateLimited(errors.New("plain")))
}
