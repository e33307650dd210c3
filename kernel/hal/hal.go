// Package hal probes for the hardware required to boot the kernel and keeps
// track of the initialized device drivers.
package hal

import (
	"bytes"
	"gophersmp/device"
	"gophersmp/device/acpi"
	"gophersmp/kernel"
	"gophersmp/kernel/kfmt"
	"sort"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	// topology is reported by the first initialized driver that
	// implements acpi.TopologyProvider.
	topology *acpi.Topology

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	driverListFn = device.DriverList
)

// Topology returns the processor and NUMA topology discovered while
// detecting hardware or nil if no driver provided one.
func Topology() *acpi.Topology {
	return devices.topology
}

// ActiveDrivers returns the list of initialized drivers in the order they
// were initialized.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers. It returns an error if a required driver cannot be detected or
// initialized.
func DetectHardware() *kernel.Error {
	// Get driver list and sort by detection priority
	drivers := driverListFn()
	sort.Sort(drivers)

	return probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) *kernel.Error {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			if info.Required() {
				return info.ErrMissing
			}
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			if info.Required() {
				return err
			}
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}

	return nil
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case acpi.TopologyProvider:
		if devices.topology != nil {
			return
		}

		devices.topology = drvImpl.Topology()
	}
}
