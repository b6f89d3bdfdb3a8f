// Package dio runs a software timed digital I/O session against a PD2-DIO
// board: open the board, enable the output ports, write a test pattern to
// every port and read it back, then release the board.
package dio

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/rsenegor-bpc/DIO/drivers"
	"github.com/rsenegor-bpc/DIO/recorder"
)

// MaxPorts is the number of ports the output mask can address.
const MaxPorts = 8

const (
	defaultSettleDelay    = 100 * time.Millisecond
	defaultSamplesPerPort = 50
	defaultScanRate       = 10.0
	defaultOutPorts       = 0x04
)

var (
	ErrNotDioBoard = errors.New("board is not a PD2-DIO")
	ErrBadState    = errors.New("operation not allowed in current session state")
)

type State int

const (
	Closed State = iota
	Unconfigured
	Configured
	Running
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Session struct {
	Board          int
	Ports          []uint16
	OutPorts       uint8
	SamplesPerPort int
	ScanRate       float64
	SettleDelay    time.Duration
	Pattern        Pattern

	Driver    drivers.DioDriver
	Recorders []recorder.Recorder
	Logger    *log.Logger

	state       State
	adapters    int
	info        drivers.AdapterInfo
	driverOpen  bool
	adapterOpen bool
	acquired    []drivers.Subsystem
}

// DefaultSession returns a session with the PowerDAQ example parameters:
// board 0, ports 0-7, port 2 as output, 50 cycles at 10Hz.
func DefaultSession(driver drivers.DioDriver) *Session {
	return &Session{
		Board:          0,
		Ports:          []uint16{0, 1, 2, 3, 4, 5, 6, 7},
		OutPorts:       defaultOutPorts,
		SamplesPerPort: defaultSamplesPerPort,
		ScanRate:       defaultScanRate,
		SettleDelay:    defaultSettleDelay,
		Pattern:        Counter{},
		Driver:         driver,
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) AdapterInfo() drivers.AdapterInfo {
	return s.info
}

func (s *Session) logger() *log.Logger {
	if s.Logger == nil {
		s.Logger = log.Default().WithPrefix("session")
	}
	return s.Logger
}

func (s *Session) pattern() Pattern {
	if s.Pattern == nil {
		return Counter{}
	}
	return s.Pattern
}

func (s *Session) validate() error {
	if s.Driver == nil {
		return errors.New("no driver set")
	}
	if len(s.Ports) == 0 {
		return errors.New("no ports configured")
	}
	seen := make(map[uint16]bool)
	for _, port := range s.Ports {
		if port >= MaxPorts {
			return errors.Errorf("port %d out of range (max %d)", port, MaxPorts-1)
		}
		if seen[port] {
			return errors.Errorf("port %d listed twice", port)
		}
		seen[port] = true
	}
	if s.SamplesPerPort <= 0 {
		return errors.Errorf("samples per port must be positive, got %d", s.SamplesPerPort)
	}
	if s.ScanRate <= 0 {
		return errors.Errorf("scan rate must be positive, got %v", s.ScanRate)
	}
	if s.SettleDelay < 0 {
		return errors.Errorf("settle delay must not be negative, got %v", s.SettleDelay)
	}
	return nil
}

// Init opens the driver and the board, takes DigitalIn and DigitalOut and
// resets the DIO ports. On error the session keeps track of what it acquired
// so Close can release it.
func (s *Session) Init(ctx context.Context) (err error) {
	if s.state != Closed {
		return errors.Wrapf(ErrBadState, "Init in state %s", s.state)
	}
	err = s.validate()
	if err != nil {
		return errors.Wrap(err, "invalid session")
	}

	s.adapters, err = s.Driver.Open(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s driver", s.Driver)
	}
	s.driverOpen = true
	s.logger().Debug("driver open", "driver", s.Driver.String(), "adapters", s.adapters)

	if s.Board < 0 || s.Board >= s.adapters {
		return errors.Errorf("board %d not found, %d adapter(s) installed", s.Board, s.adapters)
	}

	s.info, err = s.Driver.AdapterInfo(s.Board)
	if err != nil {
		return errors.Wrapf(err, "failed to get info of board %d", s.Board)
	}
	if !s.info.IsDIO() {
		return errors.Wrapf(ErrNotDioBoard, "board %d (type 0x%x)", s.Board, uint32(s.info.Type))
	}
	s.logger().Info("This is a PD2-DIO board", "board", s.Board, "model", s.info.Model)

	err = s.Driver.OpenAdapter(s.Board)
	if err != nil {
		return errors.Wrapf(err, "failed to open board %d", s.Board)
	}
	s.adapterOpen = true

	for _, sub := range []drivers.Subsystem{drivers.DigitalIn, drivers.DigitalOut} {
		err = s.Driver.AcquireSubsystem(sub, true)
		if err != nil {
			return errors.Wrapf(err, "failed to acquire %s subsystem", sub)
		}
		s.acquired = append(s.acquired, sub)
	}

	s.state = Unconfigured

	err = s.Driver.Reset()
	if err != nil {
		return errors.Wrap(err, "DIO reset failed")
	}

	return nil
}

// Run enables the output ports and performs SamplesPerPort write/read cycles
// over all ports. The session stays Running afterwards until Close.
func (s *Session) Run(ctx context.Context) error {
	if s.state != Unconfigured {
		return errors.Wrapf(ErrBadState, "Run in state %s", s.state)
	}

	err := s.Driver.EnableOutput(s.OutPorts)
	if err != nil {
		return errors.Wrapf(err, "failed to enable output ports (mask 0x%02x)", s.OutPorts)
	}
	s.state = Configured

	period := time.Duration(float64(time.Second) / s.ScanRate)
	rec := recorder.Multi(s.Recorders)
	pattern := s.pattern()

	s.state = Running
	s.logger().Info("acquisition started", "ports", s.Ports, "cycles", s.SamplesPerPort, "rate", s.ScanRate)

	for cycle := 0; cycle < s.SamplesPerPort; cycle++ {
		for _, port := range s.Ports {
			sample, err := s.sample(ctx, cycle, port, pattern.Value(cycle, port))
			if err != nil {
				return err
			}
			err = rec.Record(sample)
			if err != nil {
				return errors.Wrapf(err, "failed to record cycle %d port %d", cycle, port)
			}
		}

		err = rec.EndCycle(cycle)
		if err != nil {
			return errors.Wrapf(err, "failed to record end of cycle %d", cycle)
		}

		// fixed sleep after every cycle, on top of the per port settle delay
		err = wait(ctx, period)
		if err != nil {
			return errors.Wrapf(err, "stopped after cycle %d", cycle)
		}
	}

	s.logger().Info("acquisition done", "cycles", s.SamplesPerPort)
	return nil
}

func (s *Session) sample(ctx context.Context, cycle int, port uint16, value uint16) (sample recorder.Sample, err error) {
	err = s.Driver.Write(port, value)
	if err != nil {
		err = errors.Wrapf(err, "write to port %d failed", port)
		return
	}

	err = wait(ctx, s.SettleDelay)
	if err != nil {
		err = errors.Wrapf(err, "stopped in cycle %d", cycle)
		return
	}

	read, err := s.Driver.Read(port)
	if err != nil {
		err = errors.Wrapf(err, "read of port %d failed", port)
		return
	}

	sample = recorder.Sample{
		Board:   s.Board,
		Cycle:   cycle,
		Port:    port,
		Written: value,
		Read:    read,
		At:      time.Now(),
	}
	return
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close walks the session back to Closed: outputs are reset, subsystems
// released, then the board and the driver closed. The walk always finishes;
// the first error met is returned.
func (s *Session) Close() (err error) {
	keep := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}

	if s.state == Closed && !s.driverOpen {
		keep(s.closeRecorders())
		return
	}

	if s.state == Running {
		s.state = Configured
	}

	if s.state == Configured {
		resetErr := s.Driver.Reset()
		if resetErr != nil {
			s.logger().Error("DIO reset failed", "err", resetErr)
			keep(errors.Wrap(resetErr, "DIO reset failed"))
		}
		s.state = Unconfigured
	}

	if s.adapterOpen {
		for i := len(s.acquired) - 1; i >= 0; i-- {
			sub := s.acquired[i]
			releaseErr := s.Driver.AcquireSubsystem(sub, false)
			if releaseErr != nil {
				s.logger().Error("subsystem release failed", "subsystem", sub, "err", releaseErr)
				keep(errors.Wrapf(releaseErr, "failed to release %s subsystem", sub))
			}
		}
		s.acquired = nil

		keep(errors.Wrapf(s.Driver.CloseAdapter(), "failed to close board %d", s.Board))
		s.adapterOpen = false
	}

	if s.driverOpen {
		keep(errors.Wrapf(s.Driver.Close(), "failed to close %s driver", s.Driver))
		s.driverOpen = false
	}

	keep(s.closeRecorders())

	s.state = Closed
	return
}

// closeRecorders closes the recorders once, a later Close finds none.
func (s *Session) closeRecorders() error {
	if len(s.Recorders) == 0 {
		return nil
	}
	err := recorder.Multi(s.Recorders).Close()
	s.Recorders = nil
	return err
}
