// Package recorder holds the sinks that receive every write/read sample of a
// digital I/O session.
package recorder

import (
	"time"

	"github.com/pkg/errors"
)

// Sample is one write/read round trip on a single port.
type Sample struct {
	Board   int       `json:"board"`
	Cycle   int       `json:"cycle"`
	Port    uint16    `json:"port"`
	Written uint16    `json:"written"`
	Read    uint16    `json:"read"`
	At      time.Time `json:"at"`
}

type Recorder interface {
	Record(s Sample) error
	// EndCycle is called once every port of a cycle has been sampled.
	EndCycle(cycle int) error
	Close() error
}

// Multi fans samples out to every recorder in order and stops at the first error.
type Multi []Recorder

func (m Multi) Record(s Sample) error {
	for _, r := range m {
		if err := r.Record(s); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) EndCycle(cycle int) error {
	for _, r := range m {
		if err := r.EndCycle(cycle); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every recorder and returns the first error.
func (m Multi) Close() (err error) {
	for _, r := range m {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close recorder")
		}
	}
	return
}
