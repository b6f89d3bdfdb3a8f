package main

import "testing"

func TestParseMask(t *testing.T) {
	tests := []struct {
		value string
		want  int
		ok    bool
	}{
		{"4", 4, true},
		{"0x04", 4, true},
		{"0b1010", 10, true},
		{"0xff", 255, true},
		{"0x100", 0, false},
		{"ports", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseMask(tt.value)
			if tt.ok && err != nil {
				t.Fatalf("got err %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("got nil err, value %d", got)
			}
			if got != tt.want {
				t.Errorf("got %d want %d", got, tt.want)
			}
		})
	}
}
