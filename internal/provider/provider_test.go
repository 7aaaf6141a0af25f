package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeClassification(t *testing.T) {
	out := OK(6)
	require.Equal(t, StatusOK, out.Status)
	require.Equal(t, 6, out.Stored)
	require.NoError(t, out.Err)

	out = Failed(errors.New("connection refused"))
	require.Equal(t, StatusTransient, out.Status)
	require.Zero(t, out.Stored)

	// Wrapped cancellation is still recognized as cancellation.
	out = Failed(fmt.Errorf("fetch: %w", context.Canceled))
	require.Equal(t, StatusCanceled, out.Status)
}
