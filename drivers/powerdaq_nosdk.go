//go:build !(windows && cgo && powerdaq)

package drivers

import "context"

type pdHandles struct{}

func (pd *PowerDaq) Open(ctx context.Context) (int, error) {
	return 0, ErrSdkUnavailable
}

func (pd *PowerDaq) AdapterInfo(board int) (AdapterInfo, error) {
	return AdapterInfo{}, ErrSdkUnavailable
}

func (pd *PowerDaq) OpenAdapter(board int) error {
	return ErrSdkUnavailable
}

func (pd *PowerDaq) AcquireSubsystem(sub Subsystem, acquire bool) error {
	return ErrSdkUnavailable
}

func (pd *PowerDaq) Reset() error {
	return ErrSdkUnavailable
}

func (pd *PowerDaq) EnableOutput(mask uint8) error {
	return ErrSdkUnavailable
}

func (pd *PowerDaq) Write(port uint16, value uint16) error {
	return ErrSdkUnavailable
}

func (pd *PowerDaq) Read(port uint16) (uint16, error) {
	return 0, ErrSdkUnavailable
}

func (pd *PowerDaq) CloseAdapter() error {
	return ErrSdkUnavailable
}

func (pd *PowerDaq) Close() error {
	return ErrSdkUnavailable
}
