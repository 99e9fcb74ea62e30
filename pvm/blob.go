package pvm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// BlobMagic starts every program blob.
var BlobMagic = [4]byte{'P', 'V', 'M', 0}

// BlobVersion is the only container version understood by ParseBlob.
const BlobVersion = 1

const (
	sectionEnd          = 0
	sectionMemoryConfig = 1
	sectionROData       = 2
	sectionRWData       = 3
	sectionExports      = 5
	sectionCode         = 6

	// Sections at or above this id carry optional metadata and are skipped.
	sectionOptionalFrom = 0x80
)

// Export is a named entry point.
type Export struct {
	Name string
	PC   uint32
}

// ProgramBlob is the parsed, immutable form of a program artifact.
type ProgramBlob struct {
	ROData    []byte
	RWData    []byte
	ROSize    uint32
	RWSize    uint32
	StackSize uint32
	HeapSize  uint32
	Exports   []Export
	JumpTable []uint32
	Code      []byte
	// Bitmask has one bit per code byte, set where an instruction starts.
	Bitmask []byte
}

// ParseError reports a malformed program blob.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid program blob at offset %d: %s", e.Offset, e.Msg)
}

// IsInstructionStart reports whether the bitmask marks pc.
func (b *ProgramBlob) IsInstructionStart(pc uint32) bool {
	if uint64(pc) >= uint64(len(b.Code)) {
		return false
	}

	return b.Bitmask[pc/8]&(1<<(pc%8)) != 0
}

// Export looks up an export by name.
func (b *ProgramBlob) Export(name string) (Export, bool) {
	for _, e := range b.Exports {
		if e.Name == name {
			return e, true
		}
	}

	return Export{}, false
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) fail(format string, args ...any) error {
	return &ParseError{Offset: r.pos, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) u8() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.fail("unexpected end of data")
	}

	b := r.data[r.pos]
	r.pos++

	return b, nil
}

func (r *reader) take(n uint64) ([]byte, error) {
	if n > uint64(len(r.data)-r.pos) {
		return nil, r.fail("need %d bytes, have %d", n, len(r.data)-r.pos)
	}

	out := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)

	return out, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, r.fail("bad varint")
	}

	r.pos += n

	return v, nil
}

func (r *reader) u32() (uint32, error) {
	v, err := r.uvarint()
	if err != nil {
		return 0, err
	}

	if v > math.MaxUint32 {
		return 0, r.fail("value %d does not fit in 32 bits", v)
	}

	return uint32(v), nil
}

// ParseBlob decodes a program artifact.
func ParseBlob(raw []byte) (*ProgramBlob, error) {
	r := &reader{data: raw}

	magic, err := r.take(uint64(len(BlobMagic)))
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(magic, BlobMagic[:]) {
		return nil, &ParseError{Offset: 0, Msg: "not a program blob (bad magic)"}
	}

	version, err := r.u8()
	if err != nil {
		return nil, err
	}

	if version != BlobVersion {
		return nil, r.fail("unsupported version %d", version)
	}

	blob := &ProgramBlob{}
	seen := make(map[byte]bool)

	for {
		id, err := r.u8()
		if err != nil {
			return nil, err
		}

		if id == sectionEnd {
			break
		}

		size, err := r.uvarint()
		if err != nil {
			return nil, err
		}

		payload, err := r.take(size)
		if err != nil {
			return nil, err
		}

		if id >= sectionOptionalFrom {
			continue
		}

		if seen[id] {
			return nil, r.fail("duplicate section %d", id)
		}

		seen[id] = true

		sub := &reader{data: payload}
		base := r.pos - len(payload)

		if err := blob.parseSection(id, sub); err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Offset += base
			}

			return nil, err
		}

		if sub.pos != len(payload) {
			return nil, &ParseError{Offset: base + sub.pos, Msg: fmt.Sprintf("trailing bytes in section %d", id)}
		}
	}

	if r.pos != len(raw) {
		return nil, r.fail("trailing data after end section")
	}

	if !seen[sectionCode] {
		return nil, r.fail("missing code section")
	}

	if err := blob.validate(); err != nil {
		return nil, err
	}

	return blob, nil
}

func (b *ProgramBlob) parseSection(id byte, r *reader) error {
	var err error

	switch id {
	case sectionMemoryConfig:
		for _, dst := range []*uint32{&b.ROSize, &b.RWSize, &b.StackSize, &b.HeapSize} {
			if *dst, err = r.u32(); err != nil {
				return err
			}
		}

	case sectionROData:
		b.ROData = r.data

		r.pos = len(r.data)

	case sectionRWData:
		b.RWData = r.data

		r.pos = len(r.data)

	case sectionExports:
		count, err := r.uvarint()
		if err != nil {
			return err
		}

		for range count {
			pc, err := r.u32()
			if err != nil {
				return err
			}

			nameLen, err := r.uvarint()
			if err != nil {
				return err
			}

			name, err := r.take(nameLen)
			if err != nil {
				return err
			}

			b.Exports = append(b.Exports, Export{Name: string(name), PC: pc})
		}

	case sectionCode:
		return b.parseCode(r)

	default:
		return r.fail("unknown section %d", id)
	}

	return nil
}

func (b *ProgramBlob) parseCode(r *reader) error {
	count, err := r.uvarint()
	if err != nil {
		return err
	}

	entrySize, err := r.u8()
	if err != nil {
		return err
	}

	if count > uint64(len(r.data)) {
		return r.fail("jump table of %d entries exceeds section", count)
	}

	if count > 0 && (entrySize == 0 || entrySize > 4) {
		return r.fail("invalid jump table entry size %d", entrySize)
	}

	codeLen, err := r.u32()
	if err != nil {
		return err
	}

	table, err := r.take(count * uint64(entrySize))
	if err != nil {
		return err
	}

	b.JumpTable = make([]uint32, count)
	for i := range b.JumpTable {
		var v uint32
		for j := int(entrySize) - 1; j >= 0; j-- {
			v = v<<8 | uint32(table[i*int(entrySize)+j])
		}

		b.JumpTable[i] = v
	}

	if b.Code, err = r.take(uint64(codeLen)); err != nil {
		return err
	}

	b.Bitmask, err = r.take(uint64((codeLen + 7) / 8))

	return err
}

func (b *ProgramBlob) validate() error {
	if uint64(len(b.ROData)) > uint64(b.ROSize) {
		return &ParseError{Msg: fmt.Sprintf("ro data (%d bytes) exceeds declared ro size %d", len(b.ROData), b.ROSize)}
	}

	if uint64(len(b.RWData)) > uint64(b.RWSize) {
		return &ParseError{Msg: fmt.Sprintf("rw data (%d bytes) exceeds declared rw size %d", len(b.RWData), b.RWSize)}
	}

	if len(b.Code) > 0 && !b.IsInstructionStart(0) {
		return &ParseError{Msg: "code does not start with an instruction"}
	}

	for _, e := range b.Exports {
		if !b.IsInstructionStart(e.PC) {
			return &ParseError{Msg: fmt.Sprintf("export %q points inside an instruction (pc %d)", e.Name, e.PC)}
		}
	}

	return nil
}

// MarshalBinary encodes the blob in the format ParseBlob reads.
func (b *ProgramBlob) MarshalBinary() ([]byte, error) {
	if len(b.Bitmask) != (len(b.Code)+7)/8 {
		return nil, fmt.Errorf("bitmask has %d bytes, code needs %d", len(b.Bitmask), (len(b.Code)+7)/8)
	}

	var out bytes.Buffer

	out.Write(BlobMagic[:])
	out.WriteByte(BlobVersion)

	section := func(id byte, payload []byte) {
		out.WriteByte(id)
		out.Write(binary.AppendUvarint(nil, uint64(len(payload))))
		out.Write(payload)
	}

	var mem []byte
	for _, v := range []uint32{b.ROSize, b.RWSize, b.StackSize, b.HeapSize} {
		mem = binary.AppendUvarint(mem, uint64(v))
	}

	section(sectionMemoryConfig, mem)

	if len(b.ROData) > 0 {
		section(sectionROData, b.ROData)
	}

	if len(b.RWData) > 0 {
		section(sectionRWData, b.RWData)
	}

	if len(b.Exports) > 0 {
		exports := binary.AppendUvarint(nil, uint64(len(b.Exports)))
		for _, e := range b.Exports {
			exports = binary.AppendUvarint(exports, uint64(e.PC))
			exports = binary.AppendUvarint(exports, uint64(len(e.Name)))
			exports = append(exports, e.Name...)
		}

		section(sectionExports, exports)
	}

	entrySize := jumpTableEntrySize(b.JumpTable)

	code := binary.AppendUvarint(nil, uint64(len(b.JumpTable)))
	code = append(code, entrySize)
	code = binary.AppendUvarint(code, uint64(len(b.Code)))

	for _, target := range b.JumpTable {
		for j := range int(entrySize) {
			code = append(code, byte(target>>(8*j)))
		}
	}

	code = append(code, b.Code...)
	code = append(code, b.Bitmask...)
	section(sectionCode, code)

	out.WriteByte(sectionEnd)

	return out.Bytes(), nil
}

func jumpTableEntrySize(table []uint32) byte {
	var maxTarget uint32
	for _, t := range table {
		maxTarget = max(maxTarget, t)
	}

	switch {
	case len(table) == 0:
		return 0
	case maxTarget <= 0xff:
		return 1
	case maxTarget <= 0xffff:
		return 2
	case maxTarget <= 0xffffff:
		return 3
	default:
		return 4
	}
}

// PackBitmask builds a bitmask from instruction start offsets.
func PackBitmask(codeLen int, starts []uint32) []byte {
	mask := make([]byte, (codeLen+7)/8)
	for _, pc := range starts {
		mask[pc/8] |= 1 << (pc % 8)
	}

	return mask
}
