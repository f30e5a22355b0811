//go:build windows

package host

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const (
	esContinuous     = 0x80000000
	esSystemRequired = 0x00000001
)

var (
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

func setAwake(on bool) error {
	flags := uintptr(esContinuous)
	if on {
		flags |= esSystemRequired
	}
	if r, _, err := procSetThreadExecutionState.Call(flags); r == 0 {
		return fmt.Errorf("SetThreadExecutionState: %w", err)
	}
	return nil
}
