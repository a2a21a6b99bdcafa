//go:build linux

package sysmem

import "golang.org/x/sys/unix"

// totalSystemMemory returns total RAM on Linux via sysinfo(2).
func totalSystemMemory() (uint64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	return info.Totalram * uint64(info.Unit), true
}
