// Package compute provides the software compute backend consumed by the
// primitive library. It reproduces the GPU execution model on the host:
// thread blocks scheduled concurrently with no relative ordering guarantee,
// typed device buffers, and ordered streams observed through an explicit
// synchronization point.
package compute

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/cpu"
)

// Device describes a compute device. The backend exposes the host CPU as a
// single device; its worker count bounds how many blocks run concurrently.
type Device struct {
	ID        int    // Unique device identifier
	Name      string // Human-readable device name
	TotalMem  uint64 // Total available memory in bytes
	Workers   int    // Number of concurrent block workers
	WarpWidth int    // Widest warp the device can schedule in lockstep
	Features  DeviceFeatures
}

// DeviceFeatures tracks instruction set extensions relevant to kernel
// specialization. Capability checks consult these at compile time.
type DeviceFeatures struct {
	HasAVX2   bool
	HasAVX512 bool
	HasFMA    bool
	HasNEON   bool
}

// MaxWarpWidth is the widest lane group any kernel variant may request.
const MaxWarpWidth = 32

func detectFeatures() DeviceFeatures {
	return DeviceFeatures{
		HasAVX2:   cpu.X86.HasAVX2,
		HasAVX512: cpu.X86.HasAVX512F,
		HasFMA:    cpu.X86.HasFMA,
		HasNEON:   cpu.ARM64.HasASIMD,
	}
}

func newDevice() *Device {
	dev := &Device{
		ID:        0,
		Name:      "host",
		TotalMem:  totalSystemMemory(),
		Workers:   runtime.NumCPU(),
		WarpWidth: MaxWarpWidth,
		Features:  detectFeatures(),
	}
	logrus.WithFields(logrus.Fields{
		"device":  dev.Name,
		"workers": dev.Workers,
		"warp":    dev.WarpWidth,
	}).Debug("compute: device initialized")
	return dev
}

// SupportsWarpWidth reports whether the device can schedule a lockstep lane
// group of the given width. Widths must be powers of two up to WarpWidth.
func (d *Device) SupportsWarpWidth(width int) bool {
	if width < 1 || width > d.WarpWidth {
		return false
	}
	return width&(width-1) == 0
}
