package drivers

import "testing"

func TestDriverNames(t *testing.T) {
	mapped := MapAllDioDrivers()

	for _, name := range []string{"powerdaq", "mock", "mcp23017", "gpio"} {
		t.Run(name, func(t *testing.T) {
			driver, found := mapped[name]
			if !found {
				t.Fatalf("driver %s not mapped", name)
			}
			if driver.String() != name {
				t.Errorf("got %s want %s", driver.String(), name)
			}
		})
	}
}

func TestPortEnabled(t *testing.T) {
	var mask uint8 = 0x05

	assertBools(t, portEnabled(mask, 0), true)
	assertBools(t, portEnabled(mask, 1), false)
	assertBools(t, portEnabled(mask, 2), true)
	assertBools(t, portEnabled(mask, 8), false)
}

func TestLines(t *testing.T) {
	var v uint16

	v = setLine(v, 15, true)
	assertUint16s(t, v, 0x8000)
	assertBools(t, lineSet(v, 15), true)

	v = setLine(v, 0, true)
	v = setLine(v, 15, false)
	assertUint16s(t, v, 0x0001)
	assertBools(t, lineSet(v, 15), false)
}

func TestAdapterInfoIsDIO(t *testing.T) {
	tests := []struct {
		name string
		typ  AdapterType
		want bool
	}{
		{"PD2-DIO", AdapterTypePD2DIO, true},
		{"PD2-MF", AdapterTypePD2MF, false},
		{"PD2-AO", AdapterTypePD2AO, false},
		{"combined", AdapterTypePD2DIO | AdapterTypeMF, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertBools(t, AdapterInfo{Type: tt.typ}.IsDIO(), tt.want)
		})
	}
}

func TestDriverErrorMessage(t *testing.T) {
	err := &DriverError{Call: "_PdDIOWrite", Code: 12}
	want := "_PdDIOWrite failed (driver error 12)"
	if err.Error() != want {
		t.Errorf("got %q want %q", err.Error(), want)
	}
}

func TestPdCall(t *testing.T) {
	if err := pdCall("PdDriverOpen", true, 0); err != nil {
		t.Errorf("got %v for successful call", err)
	}

	err := pdCall("_PdDIORead", false, 3)
	de, ok := err.(*DriverError)
	if !ok {
		t.Fatalf("got %T want *DriverError", err)
	}
	if de.Call != "_PdDIORead" || de.Code != 3 {
		t.Errorf("got %+v", de)
	}
}
