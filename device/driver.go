package device

import (
	"gophersmp/kernel"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the hal package.
type DetectOrder int8

// The list of supported detection orders.
const (
	DetectOrderEarly      DetectOrder = -128
	DetectOrderBeforeACPI DetectOrder = -127
	DetectOrderACPI       DetectOrder = 0
	DetectOrderAfterACPI  DetectOrder = 1
	DetectOrderLast       DetectOrder = 127
)

// DriverInfo is used for registering drivers and for controlling the order of
// driver detection.
type DriverInfo struct {
	// Order specifies at which stage of the detection process this driver
	// is probed. Drivers with lower values are probed first.
	Order DetectOrder

	// Probe is invoked to check for the presence of the hardware handled by
	// this driver.
	Probe ProbeFn

	// ErrMissing is only set for drivers that the kernel cannot boot
	// without. It is reported if the probe does not detect the hardware;
	// init failures of such drivers are also fatal.
	ErrMissing *kernel.Error
}

// Required returns true if hardware detection must fail when this driver
// cannot be brought up.
func (info *DriverInfo) Required() bool {
	return info.ErrMissing != nil
}

// DriverInfoList is a list of registered drivers that implements sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var (
	// registeredDrivers tracks the drivers registered via a call to
	// RegisterDriver.
	registeredDrivers DriverInfoList
)

// RegisterDriver adds the supplied driver info entry to the list of
// registered drivers. The list is consulted by the hal package when probing
// for hardware.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
