package drivers

const powerdaqDriverName = "powerdaq"

// PowerDaq is a PowerDAQ PD2-DIO board driven through the vendor SDK
// (pwrdaq32). The SDK binding is only compiled with the powerdaq build tag
// on windows with cgo; otherwise every call fails with ErrSdkUnavailable.
type PowerDaq struct {
	handles pdHandles

	open        bool
	adapterOpen bool
}

func (pd *PowerDaq) String() string {
	return powerdaqDriverName
}

func pdCall(call string, ok bool, code uint32) error {
	if ok {
		return nil
	}
	return &DriverError{Call: call, Code: int(code)}
}
