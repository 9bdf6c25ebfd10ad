//go:build nojson

package pingline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat_json_unavailable(t *testing.T) {
	t.Parallel()

	_, err := ParseFormat("json")
	require.ErrorContains(t, err, "not supported by this build")
	require.Equal(t, []string{"human", "csv"}, Formats())
}
