package pingline

import "time"

const e6 = 1_000_000.0

// Sample is a single successful echo measurement.
type Sample struct {
	// Seconds since the Unix epoch, microsecond resolution
	Timestamp float64 `json:"timestamp"`
	// Round trip time in milliseconds
	Rtt float64 `json:"rtt"`
}

// NewSample stamps an echo round trip with the wall clock reading taken at construction.
// Clock readings before the epoch degrade to a zero timestamp.
func NewSample(now time.Time, rtt time.Duration) Sample {

	micros := now.UnixMicro()
	if micros < 0 {
		micros = 0
	}

	return Sample{
		Timestamp: float64(micros) / e6,
		Rtt:       float64(rtt.Nanoseconds()) / e6,
	}
}

// Time converts the sample timestamp back into a time value
func (this Sample) Time() time.Time {
	return time.UnixMicro(int64(this.Timestamp*e6 + 0.5))
}
