package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxIntervalMillis is the largest millisecond count a time.Duration can hold
const MaxIntervalMillis = math.MaxInt64 / int64(time.Millisecond)

// ParseInterval reads bare integers as milliseconds and anything else as a Go duration
func ParseInterval(val string) (time.Duration, error) {

	if val = strings.TrimSpace(val); val == "" {
		return 0, nil
	}

	var useStdlibParser = func(val string) (time.Duration, error) {

		duration, err := time.ParseDuration(val)
		if err != nil {
			return 0, err
		} else if duration < 0 {
			return 0, errors.New("invalid duration value")
		}

		return duration, nil
	}

	for _, next := range val {
		if next < '0' || next > '9' {
			return useStdlibParser(val)
		}
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	} else if millis > MaxIntervalMillis {
		return 0, fmt.Errorf("interval exceeds %d milliseconds", MaxIntervalMillis)
	}

	return time.Duration(millis) * time.Millisecond, nil
}
