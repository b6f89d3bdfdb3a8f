package recorder

import (
	"fmt"
	"io"
)

// Console prints samples in the PowerDAQ example format.
type Console struct {
	W io.Writer
}

func (c *Console) Record(s Sample) (err error) {
	_, err = fmt.Fprintf(c.W, "Value Write on Port %d: 0x%x\n", s.Port, s.Written)
	if err != nil {
		return
	}
	_, err = fmt.Fprintf(c.W, "Value Read on Port %d: 0x%x\n", s.Port, s.Read)
	return
}

func (c *Console) EndCycle(cycle int) (err error) {
	_, err = fmt.Fprintln(c.W)
	return
}

func (c *Console) Close() error {
	return nil
}
