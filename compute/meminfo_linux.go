package compute

import "golang.org/x/sys/unix"

// totalSystemMemory returns total system memory in bytes.
func totalSystemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return defaultTotalMem
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
