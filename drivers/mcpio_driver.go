package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

const mcpioDriverName = "mcp23017"

// McpDio uses MCP23017 expanders on one I2C bus as DIO ports: the chip at
// Devices[n] is port n, GPA0-7 are lines 0-7 and GPB0-7 lines 8-15.
type McpDio struct {
	BusNo   uint8
	Devices []uint8

	InvertInputs  bool
	InvertOutputs bool

	chips       []*mcp23017.Device
	adapterOpen bool
	outMask     uint8
}

func (mcp *McpDio) chip(port uint16) (*mcp23017.Device, error) {
	if !mcp.adapterOpen {
		return nil, ErrNoAdapter
	}
	if int(port) >= len(mcp.chips) {
		return nil, errors.Errorf("mcp23017 port %d not configured", port)
	}
	return mcp.chips[port], nil
}

func (mcp *McpDio) Open(ctx context.Context) (adapters int, err error) {
	if len(mcp.Devices) == 0 {
		err = errors.New("mcp23017 driver has no devices configured")
		return
	}
	if len(mcp.Devices) > 8 {
		err = errors.Errorf("mcp23017 driver takes at most 8 devices, got %d", len(mcp.Devices))
		return
	}
	adapters = 1
	return
}

func (mcp *McpDio) AdapterInfo(board int) (AdapterInfo, error) {
	if board != 0 {
		return AdapterInfo{}, errors.Errorf("mcp23017 adapter %d not found", board)
	}
	return AdapterInfo{Type: AdapterTypePD2DIO, Model: "mcp23017"}, nil
}

func (mcp *McpDio) OpenAdapter(board int) error {
	if board != 0 {
		return errors.Errorf("mcp23017 adapter %d not found", board)
	}
	for _, devNo := range mcp.Devices {
		device, err := mcp23017.Open(mcp.BusNo, devNo)
		if err != nil {
			mcp.closeChips()
			return errors.Wrapf(err, "failed to open mcp23017 (bus %d, device %d)", mcp.BusNo, devNo)
		}
		mcp.chips = append(mcp.chips, device)
	}
	mcp.adapterOpen = true
	return nil
}

func (mcp *McpDio) AcquireSubsystem(sub Subsystem, acquire bool) error {
	if !mcp.adapterOpen {
		return ErrNoAdapter
	}
	if sub != DigitalIn && sub != DigitalOut {
		return errors.Errorf("mcp23017 has no %s subsystem", sub)
	}
	return nil
}

func (mcp *McpDio) Reset() error {
	return mcp.EnableOutput(0)
}

func (mcp *McpDio) EnableOutput(mask uint8) (err error) {
	if !mcp.adapterOpen {
		return ErrNoAdapter
	}
	for portNo, device := range mcp.chips {
		output := portEnabled(mask, uint16(portNo))
		for pin := uint8(0); pin < PortLines; pin++ {
			if output {
				err = device.PinMode(pin, mcp23017.OUTPUT)
			} else {
				err = device.PinMode(pin, mcp23017.INPUT)
				if err == nil {
					err = device.SetPullUp(pin, true)
				}
			}
			if err != nil {
				return errors.Wrapf(err, "failed to set mode of mcp23017 port %d pin %d", portNo, pin)
			}
		}
	}
	mcp.outMask = mask
	return
}

func (mcp *McpDio) Write(port uint16, value uint16) error {
	device, err := mcp.chip(port)
	if err != nil {
		return err
	}
	for pin := uint8(0); pin < PortLines; pin++ {
		state := lineSet(value, int(pin))
		if mcp.InvertOutputs {
			state = !state
		}
		err = device.DigitalWrite(pin, mcp23017.PinLevel(state))
		if err != nil {
			return errors.Wrapf(err, "mcp23017 port %d pin %d write failed", port, pin)
		}
	}
	return nil
}

func (mcp *McpDio) Read(port uint16) (value uint16, err error) {
	device, err := mcp.chip(port)
	if err != nil {
		return
	}
	invert := mcp.InvertInputs
	if portEnabled(mcp.outMask, port) {
		invert = mcp.InvertOutputs
	}
	for pin := uint8(0); pin < PortLines; pin++ {
		rawState, readErr := device.DigitalRead(pin)
		if readErr != nil {
			err = errors.Wrapf(readErr, "mcp23017 port %d pin %d read failed", port, pin)
			return
		}
		state := bool(rawState)
		if invert {
			state = !state
		}
		value = setLine(value, int(pin), state)
	}
	return
}

func (mcp *McpDio) closeChips() (err error) {
	for _, device := range mcp.chips {
		if closeErr := device.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	mcp.chips = nil
	return
}

func (mcp *McpDio) CloseAdapter() error {
	if !mcp.adapterOpen {
		return ErrNoAdapter
	}
	mcp.adapterOpen = false
	return mcp.closeChips()
}

func (mcp *McpDio) Close() error {
	return nil
}

func (mcp *McpDio) String() string {
	return mcpioDriverName
}
