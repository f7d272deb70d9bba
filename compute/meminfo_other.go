//go:build !linux

package compute

// totalSystemMemory returns total system memory in bytes. Platforms without
// a sysinfo syscall report a fixed default; the value is informational only.
func totalSystemMemory() uint64 {
	return defaultTotalMem
}
