package shadows

import (
	"errors"
	"fmt"
)

// Causes wrapped by ConfigError.
var (
	ErrEmptyBorder       = errors.New("border rectangle has no area")
	ErrTooFewSegments    = errors.New("polygon needs at least 3 segments")
	ErrZeroLengthSegment = errors.New("zero-length segment")
	ErrOpenPolygon       = errors.New("polygon segments do not chain closed")
	ErrDuplicatePolygon  = errors.New("duplicate polygon name")
	ErrUnknownPolygon    = errors.New("polygon not present in segment set")
	ErrSegmentNotFound   = errors.New("segment not present in segment set")
)

// ConfigError reports malformed obstacle input. It is fatal to setup and is
// never corrected silently.
type ConfigError struct {
	Op      string   // "build" or "exclude"
	Polygon string   // offending polygon, if any
	Segment *Segment // offending segment, if any
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "shadows: " + e.Op
	if e.Polygon != "" {
		msg += fmt.Sprintf(" polygon %q", e.Polygon)
	}
	if e.Segment != nil {
		msg += fmt.Sprintf(" segment (%g,%g)-(%g,%g)", e.Segment.A.X, e.Segment.A.Y, e.Segment.B.X, e.Segment.B.Y)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
