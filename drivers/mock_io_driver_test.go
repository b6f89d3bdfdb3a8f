package drivers

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
)

func assertBools(t testing.TB, got, want bool) {
	t.Helper()

	if got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func assertUint16s(t testing.TB, got, want uint16) {
	t.Helper()

	if got != want {
		t.Errorf("got 0x%04x want 0x%04x", got, want)
	}
}

func openMock(t testing.TB, md *MockDio) {
	t.Helper()

	if _, err := md.Open(context.Background()); err != nil {
		t.Fatalf("Open returned err: %v", err)
	}
	if err := md.OpenAdapter(0); err != nil {
		t.Fatalf("OpenAdapter returned err: %v", err)
	}
	if err := md.AcquireSubsystem(DigitalIn, true); err != nil {
		t.Fatalf("acquire DigitalIn returned err: %v", err)
	}
	if err := md.AcquireSubsystem(DigitalOut, true); err != nil {
		t.Fatalf("acquire DigitalOut returned err: %v", err)
	}
}

func TestMockOpenDefaults(t *testing.T) {
	md := MockDio{}

	adapters, err := md.Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned err: %v", err)
	}
	if adapters != 1 {
		t.Errorf("got %d adapters want 1", adapters)
	}

	info, err := md.AdapterInfo(0)
	if err != nil {
		t.Fatalf("AdapterInfo returned err: %v", err)
	}
	assertBools(t, info.IsDIO(), true)

	_, err = md.AdapterInfo(1)
	if err == nil {
		t.Error("got nil error for missing adapter")
	}
}

func TestMockOutputLoopback(t *testing.T) {
	md := MockDio{Inputs: map[uint16]uint16{0: 0xbeef}}
	openMock(t, &md)

	err := md.EnableOutput(0x04)
	if err != nil {
		t.Fatalf("EnableOutput returned err: %v", err)
	}

	t.Run("output port reads back latch", func(t *testing.T) {
		md.Write(2, 0x00a5)
		got, err := md.Read(2)
		if err != nil {
			t.Fatalf("Read returned err: %v", err)
		}
		assertUint16s(t, got, 0x00a5)
	})

	t.Run("input port reads inputs", func(t *testing.T) {
		md.Write(0, 0x1234)
		got, _ := md.Read(0)
		assertUint16s(t, got, 0xbeef)
	})

	t.Run("reset drops outputs", func(t *testing.T) {
		md.Reset()
		got, _ := md.Read(2)
		assertUint16s(t, got, 0)
		if md.OutputMask() != 0 {
			t.Errorf("output mask 0x%02x after reset", md.OutputMask())
		}
	})
}

func TestMockSubsystemOwnership(t *testing.T) {
	md := MockDio{}
	openMock(t, &md)

	err := md.AcquireSubsystem(DigitalOut, true)
	if err == nil {
		t.Error("second acquire of DigitalOut succeeded")
	}

	md.AcquireSubsystem(DigitalOut, false)
	assertBools(t, md.Acquired(DigitalOut), false)

	err = md.Write(0, 1)
	if err == nil {
		t.Error("Write without DigitalOut succeeded")
	}
}

func TestMockFailOn(t *testing.T) {
	md := MockDio{FailOn: "Read"}
	openMock(t, &md)

	_, err := md.Read(0)
	var de *DriverError
	if !errors.As(err, &de) {
		t.Fatalf("got %v want *DriverError", err)
	}
	if de.Call != "Read" {
		t.Errorf("got call %s want Read", de.Call)
	}
}

func TestMockMonitorStateChanges(t *testing.T) {
	md := MockDio{}
	openMock(t, &md)
	md.EnableOutput(0xff)

	buf := &bytes.Buffer{}
	md.MonitorStateChanges(buf)

	md.Write(1, 7)
	md.Write(1, 7)

	want := "[port 1] latched 0x0007\n"
	if buf.String() != want {
		t.Errorf("got %q want %q", buf.String(), want)
	}
}

func TestMockPortRange(t *testing.T) {
	md := MockDio{Ports: 4}
	openMock(t, &md)

	if err := md.Write(4, 0); err == nil {
		t.Error("Write to port 4 of a 4 port board succeeded")
	}
	if _, err := md.Read(3); err != nil {
		t.Errorf("Read port 3 returned err: %v", err)
	}
}
