package main

import (
	"strconv"

	"github.com/pkg/errors"
)

// parseMask reads an output enable mask as decimal, 0x hex or 0b binary.
func parseMask(value string) (int, error) {
	mask, err := strconv.ParseUint(value, 0, 8)
	if err != nil {
		return 0, errors.Wrapf(err, "mask %q is not an 8 bit number", value)
	}
	return int(mask), nil
}
