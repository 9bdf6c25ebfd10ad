//go:build !nojson

package pingline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat_json_roundTrip(t *testing.T) {
	t.Parallel()

	format, err := ParseFormat("json")
	require.NoError(t, err)

	formatter, err := NewFormatter(format)
	require.NoError(t, err)

	line := formatter(referenceSample)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	require.Len(t, decoded, 2)
	require.InDelta(t, referenceSample.Timestamp, decoded["timestamp"], 1e-6)
	require.InDelta(t, referenceSample.Rtt, decoded["rtt"], 1e-9)
}

func TestFormat_json_encodingFailureYieldsEmptyLine(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", formatJson(Sample{Timestamp: 1, Rtt: math.NaN()}))
	require.Equal(t, "", formatJson(Sample{Timestamp: math.Inf(1)}))
}

func TestFormat_json_listed(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"human", "csv", "json"}, Formats())
}
