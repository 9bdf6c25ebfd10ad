package pingline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSample_NewSample_precision(t *testing.T) {
	t.Parallel()

	sample := NewSample(time.Unix(1700000000, 123456789), 12345678*time.Nanosecond)

	require.InDelta(t, 1700000000.123456, sample.Timestamp, 1e-6)
	require.InDelta(t, 12.345678, sample.Rtt, 1e-9)
}

func TestSample_NewSample_beforeEpoch(t *testing.T) {
	t.Parallel()

	sample := NewSample(time.Unix(-5, 0), time.Millisecond)

	require.Zero(t, sample.Timestamp)
	require.Equal(t, 1.0, sample.Rtt)
}

func TestSample_Time(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 123456000)
	require.True(t, NewSample(now, 0).Time().Equal(now))
}
