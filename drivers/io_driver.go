package drivers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// PortLines is the number of digital lines in one DIO port.
const PortLines = 16

var (
	ErrSdkUnavailable = errors.New("PowerDAQ SDK not compiled in (build with -tags powerdaq)")
	ErrNoAdapter      = errors.New("adapter not open")
)

// DioDriver is the board driver API a session works against. Calls map
// one-to-one onto the PowerDAQ DIO calls; other back-ends emulate them.
type DioDriver interface {
	// Open attaches to the driver and returns the number of installed adapters.
	Open(ctx context.Context) (adapters int, err error)
	AdapterInfo(board int) (AdapterInfo, error)
	OpenAdapter(board int) error
	AcquireSubsystem(sub Subsystem, acquire bool) error
	// Reset puts every port of the open adapter back to input.
	Reset() error
	// EnableOutput switches port n to output when bit n of mask is set.
	EnableOutput(mask uint8) error
	Write(port uint16, value uint16) error
	Read(port uint16) (uint16, error)
	CloseAdapter() error
	Close() error
	String() string
}

func MapAllDioDrivers() map[string]DioDriver {
	drivers := []DioDriver{
		&PowerDaq{},
		&MockDio{},
		&McpDio{},
		&GpioDio{},
	}

	mapped := make(map[string]DioDriver)
	for _, driver := range drivers {
		mapped[driver.String()] = driver
	}
	return mapped
}

type Subsystem int

const (
	AnalogIn Subsystem = iota
	AnalogOut
	DigitalIn
	DigitalOut
	CounterTimer
	CalDiag
	BoardLevel
)

func (s Subsystem) String() string {
	switch s {
	case AnalogIn:
		return "AnalogIn"
	case AnalogOut:
		return "AnalogOut"
	case DigitalIn:
		return "DigitalIn"
	case DigitalOut:
		return "DigitalOut"
	case CounterTimer:
		return "CounterTimer"
	case CalDiag:
		return "CalDiag"
	case BoardLevel:
		return "BoardLevel"
	}
	return fmt.Sprintf("Subsystem(%d)", int(s))
}

// AdapterType flags, as reported in the atType field of the SDK adapter info.
type AdapterType uint32

const (
	AdapterTypeMF AdapterType = 1 << iota
	AdapterTypePD2MF
	AdapterTypePD2MFS
	AdapterTypePD2DIO
	AdapterTypePD2AO
	AdapterTypePDLMF
)

type AdapterInfo struct {
	Type         AdapterType
	Model        string
	SerialNumber string
}

// IsDIO reports whether the adapter has the PD2-DIO port layout. Expander
// and GPIO back-ends report it too since they emulate 16-line ports.
func (ai AdapterInfo) IsDIO() bool {
	return ai.Type&AdapterTypePD2DIO != 0
}

// DriverError is a failed driver call with the code the driver reported.
type DriverError struct {
	Call string
	Code int
}

func (de *DriverError) Error() string {
	return fmt.Sprintf("%s failed (driver error %d)", de.Call, de.Code)
}

func portEnabled(mask uint8, port uint16) bool {
	if port >= 8 {
		return false
	}
	return mask&(1<<port) != 0
}

func lineSet(value uint16, line int) bool {
	return value&(1<<uint(line)) != 0
}

func setLine(value uint16, line int, state bool) uint16 {
	if state {
		return value | 1<<uint(line)
	}
	return value &^ (1 << uint(line))
}
