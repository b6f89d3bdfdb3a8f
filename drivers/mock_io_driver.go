package drivers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const mockDriverName = "mock"

// MockDio is an in-memory PD2-DIO board. Ports enabled for output latch the
// last written value and read it back; input ports read Inputs.
type MockDio struct {
	Adapters []AdapterInfo
	Ports    uint16
	Inputs   map[uint16]uint16

	// FailOn names a driver call (e.g. "Write") that returns a DriverError.
	FailOn string

	open        bool
	adapter     int
	adapterOpen bool
	acquired    map[Subsystem]bool
	outMask     uint8
	latched     map[uint16]uint16
	calls       []string

	writeTo          io.Writer
	writeStateChange bool
}

func (md *MockDio) call(name string) error {
	md.calls = append(md.calls, name)
	if strings.EqualFold(md.FailOn, name) {
		return &DriverError{Call: name, Code: -1}
	}
	return nil
}

func (md *MockDio) ports() uint16 {
	if md.Ports == 0 {
		return 8
	}
	return md.Ports
}

func (md *MockDio) adapters() []AdapterInfo {
	if len(md.Adapters) == 0 {
		return []AdapterInfo{{Type: AdapterTypePD2DIO, Model: "PD2-DIO-128", SerialNumber: "mock-0"}}
	}
	return md.Adapters
}

func (md *MockDio) Open(ctx context.Context) (int, error) {
	if err := md.call("Open"); err != nil {
		return 0, err
	}
	md.open = true
	md.acquired = make(map[Subsystem]bool)
	md.latched = make(map[uint16]uint16)
	return len(md.adapters()), nil
}

func (md *MockDio) AdapterInfo(board int) (info AdapterInfo, err error) {
	if err = md.call("AdapterInfo"); err != nil {
		return
	}
	if !md.open {
		err = errors.New("mock driver not open")
		return
	}
	if board < 0 || board >= len(md.adapters()) {
		err = errors.Errorf("mock adapter %d not found", board)
		return
	}
	info = md.adapters()[board]
	return
}

func (md *MockDio) OpenAdapter(board int) error {
	if err := md.call("OpenAdapter"); err != nil {
		return err
	}
	if !md.open {
		return errors.New("mock driver not open")
	}
	if board < 0 || board >= len(md.adapters()) {
		return errors.Errorf("mock adapter %d not found", board)
	}
	md.adapter = board
	md.adapterOpen = true
	return nil
}

func (md *MockDio) AcquireSubsystem(sub Subsystem, acquire bool) error {
	if err := md.call("AcquireSubsystem"); err != nil {
		return err
	}
	if !md.adapterOpen {
		return ErrNoAdapter
	}
	if acquire && md.acquired[sub] {
		return errors.Errorf("subsystem %s already acquired", sub)
	}
	md.acquired[sub] = acquire
	return nil
}

func (md *MockDio) Reset() error {
	if err := md.call("Reset"); err != nil {
		return err
	}
	if !md.adapterOpen {
		return ErrNoAdapter
	}
	md.outMask = 0
	md.latched = make(map[uint16]uint16)
	return nil
}

func (md *MockDio) EnableOutput(mask uint8) error {
	if err := md.call("EnableOutput"); err != nil {
		return err
	}
	if !md.acquired[DigitalOut] {
		return errors.New("DigitalOut subsystem not acquired")
	}
	md.outMask = mask
	return nil
}

func (md *MockDio) Write(port uint16, value uint16) error {
	if err := md.call("Write"); err != nil {
		return err
	}
	if !md.acquired[DigitalOut] {
		return errors.New("DigitalOut subsystem not acquired")
	}
	if port >= md.ports() {
		return errors.Errorf("mock port %d out of range", port)
	}
	if md.writeStateChange && value != md.latched[port] {
		fmt.Fprintf(md.writeTo, "[port %d] latched 0x%04x\n", port, value)
	}
	md.latched[port] = value
	return nil
}

func (md *MockDio) Read(port uint16) (uint16, error) {
	if err := md.call("Read"); err != nil {
		return 0, err
	}
	if !md.acquired[DigitalIn] {
		return 0, errors.New("DigitalIn subsystem not acquired")
	}
	if port >= md.ports() {
		return 0, errors.Errorf("mock port %d out of range", port)
	}
	if portEnabled(md.outMask, port) {
		return md.latched[port], nil
	}
	return md.Inputs[port], nil
}

func (md *MockDio) CloseAdapter() error {
	if err := md.call("CloseAdapter"); err != nil {
		return err
	}
	if !md.adapterOpen {
		return ErrNoAdapter
	}
	md.adapterOpen = false
	return nil
}

func (md *MockDio) Close() error {
	if err := md.call("Close"); err != nil {
		return err
	}
	md.open = false
	return nil
}

func (md *MockDio) String() string {
	return mockDriverName
}

// Calls lists every driver call made so far, in order.
func (md *MockDio) Calls() []string {
	return md.calls
}

func (md *MockDio) Acquired(sub Subsystem) bool {
	return md.acquired[sub]
}

func (md *MockDio) IsOpen() bool {
	return md.open
}

func (md *MockDio) IsAdapterOpen() bool {
	return md.adapterOpen
}

func (md *MockDio) OutputMask() uint8 {
	return md.outMask
}

func (md *MockDio) MonitorStateChanges(writer io.Writer) {
	md.writeTo = writer
	md.writeStateChange = true
}
