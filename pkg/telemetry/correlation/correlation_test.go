package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "run-42")

	ctx, cid := EnsureCorrelationID(ctx)
	require.Equal(t, "run-42", cid)
	require.Equal(t, "run-42", ExtractCorrelationID(ctx))
}

func TestEnsureCorrelationIDGenerates(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	require.Len(t, cid, 26)
	require.Equal(t, cid, ExtractCorrelationID(ctx))

	_, again := EnsureCorrelationID(context.Background())
	require.NotEqual(t, cid, again)
}

func TestContextWithCorrelationIDIgnoresBlank(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "  ")
	require.Empty(t, ExtractCorrelationID(ctx))
	require.Empty(t, ExtractCorrelationID(nil))
}
