//go:build darwin

package sysmem

import "golang.org/x/sys/unix"

// totalSystemMemory returns total RAM on macOS via the hw.memsize sysctl.
func totalSystemMemory() (uint64, bool) {
	mem, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, false
	}
	return mem, true
}
