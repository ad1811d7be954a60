package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorChain(t *testing.T) {
	inner := errors.New("connection refused")
	middle := fmt.Errorf("probing subscription 'abc': %w", inner)
	outer := fmt.Errorf("resolving identifier: %w", middle)

	lines := errorChain(outer)
	require.Equal(t, []string{
		"connection refused",
		"probing subscription 'abc'",
		"resolving identifier",
	}, lines)
}

func TestErrorChainSingle(t *testing.T) {
	require.Equal(t, []string{"boom"}, errorChain(errors.New("boom")))
}

func TestErrorChainDropsEmptyWrappers(t *testing.T) {
	inner := errors.New("boom")
	wrapper := fmt.Errorf("%w", inner)

	require.Equal(t, []string{"boom"}, errorChain(wrapper))
}
