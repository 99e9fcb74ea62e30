package pvm

import (
	"errors"
	"fmt"
)

// Address space layout constants.
const (
	PageSize = 0x1000
	// SegmentAlign separates the regions of the address space.
	SegmentAlign = 0x10000
	// ReturnToHost is the return address that ends execution when jumped to.
	ReturnToHost uint32 = 0xFFFF0000
)

// ErrOutOfBounds is returned by host memory accessors for unmapped ranges.
var ErrOutOfBounds = errors.New("memory access out of bounds")

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

// MemoryMap describes where each region of a module lives.
type MemoryMap struct {
	ROAddress        uint32
	ROSize           uint32
	RWAddress        uint32
	RWSize           uint32
	HeapBase         uint32
	HeapLimit        uint32
	StackAddressLow  uint32
	StackAddressHigh uint32
	AuxDataAddress   uint32
	AuxDataSize      uint32
}

func newMemoryMap(blob *ProgramBlob, auxSize uint32) (MemoryMap, error) {
	var mm MemoryMap

	mm.ROAddress = SegmentAlign
	mm.ROSize = uint32(alignUp(uint64(blob.ROSize), PageSize))

	rwAddress := alignUp(uint64(mm.ROAddress)+uint64(mm.ROSize), SegmentAlign) + SegmentAlign
	heapBase := rwAddress + uint64(blob.RWSize)
	heapLimit := heapBase + uint64(blob.HeapSize)
	rwEnd := alignUp(heapLimit, PageSize)

	auxAddress := uint64(ReturnToHost) - SegmentAlign - alignUp(uint64(auxSize), SegmentAlign)
	stackHigh := auxAddress - SegmentAlign
	stackLow := stackHigh - alignUp(uint64(blob.StackSize), PageSize)

	if auxAddress < 2*SegmentAlign || stackHigh < stackLow {
		return mm, fmt.Errorf("aux data of %d bytes does not fit in the address space", auxSize)
	}

	if rwEnd+SegmentAlign > stackLow {
		return mm, fmt.Errorf(
			"memory layout overflows: rw/heap ends at 0x%x, stack starts at 0x%x",
			rwEnd, stackLow,
		)
	}

	mm.RWAddress = uint32(rwAddress)
	mm.RWSize = uint32(rwEnd - rwAddress)
	mm.HeapBase = uint32(heapBase)
	mm.HeapLimit = uint32(heapLimit)
	mm.StackAddressLow = uint32(stackLow)
	mm.StackAddressHigh = uint32(stackHigh)
	mm.AuxDataAddress = uint32(auxAddress)
	mm.AuxDataSize = auxSize

	return mm, nil
}

type region struct {
	start uint32
	// accessible is the guest visible length; data may be larger.
	accessible uint32
	data       []byte
	writable   bool
}

func (r *region) contains(addr, n uint32) bool {
	return addr >= r.start && uint64(addr)+uint64(n) <= uint64(r.start)+uint64(r.accessible)
}

// memory owns the mapped regions of one instance. The rw region comes first
// since it sees most traffic.
type memory struct {
	regions   [4]region
	heapTop   uint32
	heapLimit uint32
}

const (
	regionRW = iota
	regionStack
	regionAux
	regionRO
)

func newMemory(mm MemoryMap, blob *ProgramBlob) (*memory, error) {
	m := &memory{
		heapTop:   mm.HeapBase,
		heapLimit: mm.HeapLimit,
	}

	specs := [4]struct {
		start, size, accessible uint32
		writable                bool
	}{
		regionRW: {
			start:      mm.RWAddress,
			size:       mm.RWSize,
			accessible: uint32(alignUp(uint64(mm.HeapBase), PageSize)) - mm.RWAddress,
			writable:   true,
		},
		regionStack: {
			start:      mm.StackAddressLow,
			size:       mm.StackAddressHigh - mm.StackAddressLow,
			accessible: mm.StackAddressHigh - mm.StackAddressLow,
			writable:   true,
		},
		regionAux: {
			start:      mm.AuxDataAddress,
			size:       uint32(alignUp(uint64(mm.AuxDataSize), PageSize)),
			accessible: mm.AuxDataSize,
		},
		regionRO: {
			start:      mm.ROAddress,
			size:       mm.ROSize,
			accessible: mm.ROSize,
		},
	}

	for i, spec := range specs {
		data, err := mapRegion(int(spec.size))
		if err != nil {
			m.release()

			return nil, fmt.Errorf("map region at 0x%x: %w", spec.start, err)
		}

		m.regions[i] = region{
			start:      spec.start,
			accessible: spec.accessible,
			data:       data,
			writable:   spec.writable,
		}
	}

	copy(m.regions[regionRO].data, blob.ROData)
	copy(m.regions[regionRW].data, blob.RWData)

	return m, nil
}

// guest returns the bytes backing [addr, addr+n) as seen by the guest, or
// nil when any byte is inaccessible.
func (m *memory) guest(addr, n uint32, write bool) []byte {
	for i := range m.regions {
		r := &m.regions[i]
		if !r.contains(addr, n) {
			continue
		}

		if write && !r.writable {
			return nil
		}

		off := addr - r.start

		return r.data[off : off+n]
	}

	return nil
}

// host is like guest but ignores write protection.
func (m *memory) host(addr, n uint32) []byte {
	for i := range m.regions {
		r := &m.regions[i]
		if r.contains(addr, n) {
			off := addr - r.start

			return r.data[off : off+n]
		}
	}

	return nil
}

func (m *memory) sbrk(size uint32) (uint32, bool) {
	old := m.heapTop
	if size == 0 {
		return old, true
	}

	top := uint64(old) + uint64(size)
	if top > uint64(m.heapLimit) {
		return 0, false
	}

	rw := &m.regions[regionRW]
	m.heapTop = uint32(top)
	rw.accessible = uint32(alignUp(top, PageSize)) - rw.start

	return old, true
}

func (m *memory) release() error {
	var errs []error

	for i := range m.regions {
		if m.regions[i].data == nil {
			continue
		}

		if err := unmapRegion(m.regions[i].data); err != nil {
			errs = append(errs, err)
		}

		m.regions[i] = region{}
	}

	return errors.Join(errs...)
}

func pageOf(addr uint32) uint32 {
	return addr &^ (PageSize - 1)
}
