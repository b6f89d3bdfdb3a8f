package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

const gpioDriverName = "gpio"

// GpioDio drives Raspberry Pi header pins as DIO ports. Each entry of Ports
// lists the BCM pins of one port, line 0 first.
type GpioDio struct {
	Ports [][]uint8

	InvertInputs  bool
	InvertOutputs bool

	open        bool
	adapterOpen bool
	outMask     uint8
}

func (gp *GpioDio) checkPorts() error {
	if len(gp.Ports) == 0 {
		return errors.New("gpio driver has no ports configured")
	}
	if len(gp.Ports) > 8 {
		return errors.Errorf("gpio driver takes at most 8 ports, got %d", len(gp.Ports))
	}
	seen := make(map[uint8]bool)
	for portNo, pins := range gp.Ports {
		if len(pins) > PortLines {
			return errors.Errorf("gpio port %d has %d pins (max %d)", portNo, len(pins), PortLines)
		}
		for _, pin := range pins {
			if pin > 27 {
				return errors.Errorf("gpio pin %d out of range (BCM 0-27)", pin)
			}
			if seen[pin] {
				return errors.Errorf("gpio pin %d used twice", pin)
			}
			seen[pin] = true
		}
	}
	return nil
}

func (gp *GpioDio) port(port uint16) ([]uint8, error) {
	if !gp.adapterOpen {
		return nil, ErrNoAdapter
	}
	if int(port) >= len(gp.Ports) {
		return nil, errors.Errorf("gpio port %d not configured", port)
	}
	return gp.Ports[port], nil
}

func (gp *GpioDio) Open(ctx context.Context) (adapters int, err error) {
	err = gp.checkPorts()
	if err != nil {
		return
	}
	err = rpio.Open()
	if err != nil {
		err = errors.Wrapf(err, "failed to open gpio for ports: %v", gp.Ports)
		return
	}
	gp.open = true
	adapters = 1
	return
}

func (gp *GpioDio) AdapterInfo(board int) (AdapterInfo, error) {
	if board != 0 {
		return AdapterInfo{}, errors.Errorf("gpio adapter %d not found", board)
	}
	return AdapterInfo{Type: AdapterTypePD2DIO, Model: "rpi-gpio"}, nil
}

func (gp *GpioDio) OpenAdapter(board int) error {
	if !gp.open {
		return errors.New("gpio driver not open")
	}
	if board != 0 {
		return errors.Errorf("gpio adapter %d not found", board)
	}
	gp.adapterOpen = true
	return nil
}

// AcquireSubsystem only checks the adapter, gpio pins have no ownership lock.
func (gp *GpioDio) AcquireSubsystem(sub Subsystem, acquire bool) error {
	if !gp.adapterOpen {
		return ErrNoAdapter
	}
	if sub != DigitalIn && sub != DigitalOut {
		return errors.Errorf("gpio has no %s subsystem", sub)
	}
	return nil
}

func (gp *GpioDio) Reset() error {
	return gp.EnableOutput(0)
}

func (gp *GpioDio) EnableOutput(mask uint8) error {
	if !gp.adapterOpen {
		return ErrNoAdapter
	}
	for portNo, pins := range gp.Ports {
		for _, p := range pins {
			pin := rpio.Pin(p)
			if portEnabled(mask, uint16(portNo)) {
				pin.Output()
			} else {
				pin.Input()
				pin.PullUp()
			}
		}
	}
	gp.outMask = mask
	return nil
}

func (gp *GpioDio) Write(port uint16, value uint16) error {
	pins, err := gp.port(port)
	if err != nil {
		return err
	}
	for line, p := range pins {
		state := lineSet(value, line)
		if gp.InvertOutputs {
			state = !state
		}
		if state {
			rpio.Pin(p).High()
		} else {
			rpio.Pin(p).Low()
		}
	}
	return nil
}

func (gp *GpioDio) Read(port uint16) (value uint16, err error) {
	pins, err := gp.port(port)
	if err != nil {
		return
	}
	invert := gp.InvertInputs
	if portEnabled(gp.outMask, port) {
		invert = gp.InvertOutputs
	}
	for line, p := range pins {
		state := rpio.Pin(p).Read() == rpio.High
		if invert {
			state = !state
		}
		value = setLine(value, line, state)
	}
	return
}

func (gp *GpioDio) CloseAdapter() error {
	if !gp.adapterOpen {
		return ErrNoAdapter
	}
	gp.adapterOpen = false
	return nil
}

func (gp *GpioDio) Close() error {
	if !gp.open {
		return nil
	}
	gp.open = false
	return rpio.Close()
}

func (gp *GpioDio) String() string {
	return gpioDriverName
}
