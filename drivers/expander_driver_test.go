package drivers

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

func TestGpioCheckPorts(t *testing.T) {
	tests := []struct {
		name  string
		ports [][]uint8
		ok    bool
	}{
		{"none", nil, false},
		{"one port", [][]uint8{{17, 27, 22}}, true},
		{"too many lines", [][]uint8{{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}, false},
		{"pin out of range", [][]uint8{{28}}, false},
		{"pin reused", [][]uint8{{4, 5}, {5}}, false},
		{"too many ports", [][]uint8{{0}, {1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gp := GpioDio{Ports: tt.ports}
			err := gp.checkPorts()
			if tt.ok && err != nil {
				t.Errorf("got err %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("got nil error")
			}
		})
	}
}

func TestGpioNeedsAdapter(t *testing.T) {
	gp := GpioDio{Ports: [][]uint8{{17}}}

	err := gp.Write(0, 1)
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("Write: got %v want ErrNoAdapter", err)
	}
	_, err = gp.Read(0)
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("Read: got %v want ErrNoAdapter", err)
	}
	err = gp.OpenAdapter(0)
	if err == nil {
		t.Error("OpenAdapter before Open succeeded")
	}

	info, err := gp.AdapterInfo(0)
	if err != nil {
		t.Fatalf("AdapterInfo returned err: %v", err)
	}
	assertBools(t, info.IsDIO(), true)
}

func TestMcpOpenValidatesDevices(t *testing.T) {
	mcp := McpDio{}
	_, err := mcp.Open(context.Background())
	if err == nil {
		t.Error("Open without devices succeeded")
	}

	mcp.Devices = []uint8{0, 1}
	adapters, err := mcp.Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned err: %v", err)
	}
	if adapters != 1 {
		t.Errorf("got %d adapters want 1", adapters)
	}

	_, err = mcp.AdapterInfo(1)
	if err == nil {
		t.Error("AdapterInfo(1) succeeded")
	}
}

func TestMcpNeedsAdapter(t *testing.T) {
	mcp := McpDio{Devices: []uint8{0}}

	err := mcp.Write(0, 0xffff)
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("Write: got %v want ErrNoAdapter", err)
	}
	err = mcp.EnableOutput(1)
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("EnableOutput: got %v want ErrNoAdapter", err)
	}
	err = mcp.CloseAdapter()
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("CloseAdapter: got %v want ErrNoAdapter", err)
	}
}
