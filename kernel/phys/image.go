package phys

import "gophersmp/kernel"

// Image is a sparse, in-memory stand-in for physical memory. It is used by the
// host-side tools and by tests to present firmware tables at the physical
// addresses the firmware would have placed them.
type Image struct {
	regions []region
}

type region struct {
	base uintptr
	data []byte
}

// Map makes data visible at physical address base. The backing slice is not
// copied so changes to data are visible to subsequent reads. Regions must not
// overlap; if they do, the region mapped first wins.
func (img *Image) Map(base uintptr, data []byte) {
	img.regions = append(img.regions, region{base: base, data: data})
}

// ReadPhys implements Reader. A read may span adjacent regions but fails if
// any byte in [addr, addr+len(p)) is not backed by a mapped region.
func (img *Image) ReadPhys(addr uintptr, p []byte) *kernel.Error {
	if addr+uintptr(len(p)) < addr {
		return errOutOfRange
	}

	for len(p) > 0 {
		r := img.regionFor(addr)
		if r == nil {
			return errOutOfRange
		}

		n := copy(p, r.data[addr-r.base:])
		p = p[n:]
		addr += uintptr(n)
	}

	return nil
}

func (img *Image) regionFor(addr uintptr) *region {
	for i := range img.regions {
		r := &img.regions[i]
		if addr >= r.base && addr-r.base < uintptr(len(r.data)) {
			return r
		}
	}

	return nil
}
