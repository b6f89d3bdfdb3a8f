package dio

import (
	"strings"

	"github.com/pkg/errors"
)

// Pattern gives the value written to a port in a given cycle.
type Pattern interface {
	Value(cycle int, port uint16) uint16
}

// counterWrap is where the counter pattern starts over. Every port gets the
// 0 of the wrapping cycle, none is skipped.
const counterWrap = 0xff

// Counter writes the cycle number to every port, wrapping from 0xfe to 0.
type Counter struct{}

func (Counter) Value(cycle int, port uint16) uint16 {
	return uint16(cycle % counterWrap)
}

// WalkingBit sets a single line per cycle, moving up one line each cycle.
type WalkingBit struct{}

func (WalkingBit) Value(cycle int, port uint16) uint16 {
	return 1 << uint(cycle%16)
}

func ParsePattern(name string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "counter":
		return Counter{}, nil
	case "walking", "walking-bit", "walkingbit":
		return WalkingBit{}, nil
	}
	return nil, errors.Errorf("unknown pattern %q (want counter or walking)", name)
}
