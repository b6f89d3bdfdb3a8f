//go:build !(windows && cgo && powerdaq)

package drivers

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

func TestPowerDaqWithoutSdk(t *testing.T) {
	pd := PowerDaq{}

	_, err := pd.Open(context.Background())
	if !errors.Is(err, ErrSdkUnavailable) {
		t.Errorf("Open: got %v want ErrSdkUnavailable", err)
	}
	err = pd.Write(0, 1)
	if !errors.Is(err, ErrSdkUnavailable) {
		t.Errorf("Write: got %v want ErrSdkUnavailable", err)
	}
}
