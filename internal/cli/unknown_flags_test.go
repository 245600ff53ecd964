package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"generate", "app", "--unknown-flag"},
		{"projects", "--lang", "go"},
	} {
		err := executeRoot(args...)
		require.Error(t, err, args)
		_, ok := err.(usageError)
		assert.True(t, ok, "expected usage error, got %T: %v", err, err)
		assert.Contains(t, err.Error(), "unknown flag")
		assert.Contains(t, err.Error(), "Usage:")
	}
}
