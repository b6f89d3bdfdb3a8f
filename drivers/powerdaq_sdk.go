//go:build windows && cgo && powerdaq

package drivers

/*
#cgo LDFLAGS: -lpwrdaq32
#include <windows.h>
#include "pwrdaq32.h"
#include "pwrdaq.h"
#include "pdfw_def.h"
#include "pd_hcaps.h"
*/
import "C"
import (
	"context"
	"fmt"
)

type pdHandles struct {
	driver  C.HANDLE
	adapter C.HANDLE
}

func adapterType(at C.DWORD) (t AdapterType) {
	flags := []struct {
		sdk C.DWORD
		our AdapterType
	}{
		{C.atMF, AdapterTypeMF},
		{C.atPD2MF, AdapterTypePD2MF},
		{C.atPD2MFS, AdapterTypePD2MFS},
		{C.atPD2DIO, AdapterTypePD2DIO},
		{C.atPD2AO, AdapterTypePD2AO},
		{C.atPDLMF, AdapterTypePDLMF},
	}
	for _, f := range flags {
		if at&f.sdk != 0 {
			t |= f.our
		}
	}
	return
}

func (pd *PowerDaq) Open(ctx context.Context) (int, error) {
	var code, adapters C.DWORD
	ret := C.PdDriverOpen(&pd.handles.driver, &code, &adapters)
	if err := pdCall("PdDriverOpen", ret != 0, uint32(code)); err != nil {
		return 0, err
	}
	pd.open = true
	return int(adapters), nil
}

func (pd *PowerDaq) AdapterInfo(board int) (AdapterInfo, error) {
	var (
		code C.DWORD
		info C.Adapter_Info
	)
	ret := C._PdGetAdapterInfo(C.DWORD(board), &code, &info)
	if err := pdCall("_PdGetAdapterInfo", ret != 0, uint32(code)); err != nil {
		return AdapterInfo{}, err
	}
	out := AdapterInfo{Type: adapterType(info.atType)}
	if out.IsDIO() {
		out.Model = fmt.Sprintf("PD2-DIO #%d", board)
	}
	return out, nil
}

func (pd *PowerDaq) OpenAdapter(board int) error {
	var code C.DWORD
	ret := C._PdAdapterOpen(C.DWORD(board), &code, &pd.handles.adapter)
	if err := pdCall("_PdAdapterOpen", ret != 0, uint32(code)); err != nil {
		return err
	}
	pd.adapterOpen = true
	return nil
}

func (pd *PowerDaq) AcquireSubsystem(sub Subsystem, acquire bool) error {
	if !pd.adapterOpen {
		return ErrNoAdapter
	}
	var code, action C.DWORD
	if acquire {
		action = 1
	}
	ret := C.PdAdapterAcquireSubsystem(pd.handles.adapter, &code, C.DWORD(sub), action)
	return pdCall("PdAdapterAcquireSubsystem", ret != 0, uint32(code))
}

func (pd *PowerDaq) Reset() error {
	if !pd.adapterOpen {
		return ErrNoAdapter
	}
	var code C.DWORD
	ret := C._PdDIOReset(pd.handles.adapter, &code)
	return pdCall("_PdDIOReset", ret != 0, uint32(code))
}

func (pd *PowerDaq) EnableOutput(mask uint8) error {
	if !pd.adapterOpen {
		return ErrNoAdapter
	}
	var code C.DWORD
	ret := C._PdDIOEnableOutput(pd.handles.adapter, &code, C.DWORD(mask))
	return pdCall("_PdDIOEnableOutput", ret != 0, uint32(code))
}

func (pd *PowerDaq) Write(port uint16, value uint16) error {
	if !pd.adapterOpen {
		return ErrNoAdapter
	}
	var code C.DWORD
	ret := C._PdDIOWrite(pd.handles.adapter, &code, C.DWORD(port), C.DWORD(value))
	return pdCall("_PdDIOWrite", ret != 0, uint32(code))
}

func (pd *PowerDaq) Read(port uint16) (uint16, error) {
	if !pd.adapterOpen {
		return 0, ErrNoAdapter
	}
	var code, value C.DWORD
	ret := C._PdDIORead(pd.handles.adapter, &code, C.DWORD(port), &value)
	if err := pdCall("_PdDIORead", ret != 0, uint32(code)); err != nil {
		return 0, err
	}
	// only the 16 lines of the port are meaningful
	return uint16(value & 0xffff), nil
}

func (pd *PowerDaq) CloseAdapter() error {
	if !pd.adapterOpen {
		return ErrNoAdapter
	}
	var code C.DWORD
	ret := C._PdAdapterClose(pd.handles.adapter, &code)
	pd.adapterOpen = false
	return pdCall("_PdAdapterClose", ret != 0, uint32(code))
}

func (pd *PowerDaq) Close() error {
	if !pd.open {
		return nil
	}
	var code C.DWORD
	ret := C.PdDriverClose(pd.handles.driver, &code)
	pd.open = false
	return pdCall("PdDriverClose", ret != 0, uint32(code))
}
