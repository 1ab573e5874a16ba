package config

import (
	"time"
)

// Duration wraps time.Duration so config fields round-trip through
// human-readable text such as "30m" or "8h" instead of integer nanoseconds.
type Duration time.Duration

func (d *Duration) String() string {
	return time.Duration(*d).String()
}

// UnmarshalText parses a duration string. Empty text leaves the value
// unchanged so omitted config fields keep their defaults.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText renders the duration in the same form UnmarshalText accepts.
func (d Duration) MarshalText() (text []byte, err error) {
	return []byte(d.String()), nil
}

// Set implements the pflag.Value interface.
func (d *Duration) Set(raw string) error {
	return d.UnmarshalText([]byte(raw))
}

// Type implements the pflag.Value interface.
func (d *Duration) Type() string {
	return "duration"
}
