// Package asm assembles guest programs from a line oriented text format into
// program blobs.
//
// Mnemonics are the instruction names of the cost model registry. Operands
// are separated by commas:
//
//	loop:
//	    add_imm_64 a0, a0, -1          ; rd, rs, imm
//	    branch_not_eq_imm a0, 0, @loop ; ra, imm, target
//	    jump_indirect ra, 0
//
// Every label starts a basic block: when the preceding instruction does not
// end a block, a fallthrough is inserted before the label.
package asm

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	cm "github.com/weiihann/gasbench/costmodel"
	"github.com/weiihann/gasbench/pvm"
)

// Error is an assembly failure at a source line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type fixup struct {
	// at is the code offset of the 4 byte offset field.
	at    int
	pc    uint32
	label string
	line  int
}

type labelRef struct {
	label string
	line  int
}

type assembler struct {
	code   []byte
	starts []uint32
	// last is the most recently emitted instruction.
	last    cm.Instruction
	emitted bool

	labels  map[string]uint32
	fixups  []fixup
	exports []labelRef

	jumpTable []labelRef
	jumpIndex map[string]int

	blob pvm.ProgramBlob
	line int
}

// Assemble translates source into a program blob.
func Assemble(src string) (*pvm.ProgramBlob, error) {
	a := &assembler{
		labels:    make(map[string]uint32),
		jumpIndex: make(map[string]int),
	}

	for i, raw := range strings.Split(src, "\n") {
		a.line = i + 1

		if err := a.assembleLine(raw); err != nil {
			return nil, err
		}
	}

	return a.finish()
}

func (a *assembler) errorf(format string, args ...any) error {
	return &Error{Line: a.line, Msg: fmt.Sprintf(format, args...)}
}

func (a *assembler) assembleLine(raw string) error {
	line := raw
	if i := strings.IndexAny(line, ";#"); i >= 0 {
		line = line[:i]
	}

	line = strings.TrimSpace(line)

	if i := strings.Index(line, ":"); i > 0 && isIdent(line[:i]) {
		if err := a.defineLabel(line[:i]); err != nil {
			return err
		}

		line = strings.TrimSpace(line[i+1:])
	}

	if line == "" {
		return nil
	}

	mnemonic, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var args []string
	if rest != "" {
		for _, arg := range strings.Split(rest, ",") {
			args = append(args, strings.TrimSpace(arg))
		}
	}

	if strings.HasPrefix(mnemonic, ".") {
		return a.directive(mnemonic, args, rest)
	}

	return a.instruction(mnemonic, args)
}

func (a *assembler) defineLabel(name string) error {
	if _, ok := a.labels[name]; ok {
		return a.errorf("label %q redefined", name)
	}

	if a.emitted && !pvm.IsTerminator(a.last) {
		a.emit(cm.Fallthrough)
	}

	a.labels[name] = uint32(len(a.code))

	return nil
}

func (a *assembler) directive(name string, args []string, rest string) error {
	switch name {
	case ".export":
		if len(args) != 1 || !isIdent(args[0]) {
			return a.errorf(".export takes one label")
		}

		a.exports = append(a.exports, labelRef{label: args[0], line: a.line})

	case ".stack", ".heap", ".ro_size", ".rw_size":
		if len(args) != 1 {
			return a.errorf("%s takes one size", name)
		}

		v, err := a.number(args[0])
		if err != nil {
			return err
		}

		if v > math.MaxUint32 {
			return a.errorf("%s %d does not fit in 32 bits", name, v)
		}

		dst := map[string]*uint32{
			".stack":   &a.blob.StackSize,
			".heap":    &a.blob.HeapSize,
			".ro_size": &a.blob.ROSize,
			".rw_size": &a.blob.RWSize,
		}[name]
		*dst = uint32(v)

	case ".ro_data", ".rw_data":
		data, err := hex.DecodeString(strings.Join(strings.Fields(rest), ""))
		if err != nil {
			return a.errorf("%s: %v", name, err)
		}

		if name == ".ro_data" {
			a.blob.ROData = append(a.blob.ROData, data...)
		} else {
			a.blob.RWData = append(a.blob.RWData, data...)
		}

	case ".jump_table":
		for _, label := range args {
			if !isIdent(label) {
				return a.errorf("bad label %q", label)
			}

			a.jumpAddress(label)
		}

	default:
		return a.errorf("unknown directive %s", name)
	}

	return nil
}

// jumpAddress returns the dynamic jump address of label, adding it to the
// jump table on first use.
func (a *assembler) jumpAddress(label string) uint64 {
	idx, ok := a.jumpIndex[label]
	if !ok {
		idx = len(a.jumpTable)
		a.jumpIndex[label] = idx
		a.jumpTable = append(a.jumpTable, labelRef{label: label, line: a.line})
	}

	return uint64(idx+1) * 2
}

func (a *assembler) emit(inst cm.Instruction, operands ...byte) {
	op, _ := pvm.OpcodeOf(inst)

	a.starts = append(a.starts, uint32(len(a.code)))
	a.code = append(a.code, byte(op))
	a.code = append(a.code, operands...)
	a.last = inst
	a.emitted = true
}

func (a *assembler) instruction(mnemonic string, args []string) error {
	inst, ok := cm.Lookup(mnemonic)
	if !ok {
		return a.errorf("unknown instruction %q", mnemonic)
	}

	op, ok := pvm.OpcodeOf(inst)
	if !ok {
		return a.errorf("%s has no encoding", mnemonic)
	}

	p := &operands{a: a, args: args}
	pc := uint32(len(a.code))

	var out []byte

	switch op.Form() {
	case pvm.FormNoArgs:

	case pvm.FormOneImm:
		out = p.imm()

	case pvm.FormRegExtImm:
		r := p.reg()
		v := p.imm64()
		out = append([]byte{r}, v...)

	case pvm.FormTwoImm:
		x, y := p.imm(), p.imm()
		out = append([]byte{byte(len(x))}, x...)
		out = append(out, y...)

	case pvm.FormOneOffset:
		out = p.offset(pc, 0)

	case pvm.FormRegImm:
		r := p.reg()
		out = append([]byte{r}, p.imm()...)

	case pvm.FormRegTwoImm:
		r, x, y := p.reg(), p.imm(), p.imm()
		out = append([]byte{r | byte(len(x))<<4}, x...)
		out = append(out, y...)

	case pvm.FormRegImmOffset:
		r, x := p.reg(), p.imm()
		out = append([]byte{r | byte(len(x))<<4}, x...)
		out = append(out, p.offset(pc, len(out))...)

	case pvm.FormTwoRegs:
		d, s := p.reg(), p.reg()
		out = []byte{d | s<<4}

	case pvm.FormTwoRegsImm:
		ra, rb := p.reg(), p.reg()
		out = append([]byte{ra | rb<<4}, p.imm()...)

	case pvm.FormTwoRegsOffset:
		ra, rb := p.reg(), p.reg()
		out = []byte{ra | rb<<4}
		out = append(out, p.offset(pc, len(out))...)

	case pvm.FormTwoRegsTwoImm:
		ra, rb, x, y := p.reg(), p.reg(), p.imm(), p.imm()
		out = append([]byte{ra | rb<<4, byte(len(x))}, x...)
		out = append(out, y...)

	case pvm.FormThreeRegs:
		d, ra, rb := p.reg(), p.reg(), p.reg()
		out = []byte{ra | rb<<4, d}
	}

	if p.err != nil {
		return p.err
	}

	if p.next < len(args) {
		return a.errorf("%s: too many operands", mnemonic)
	}

	a.emit(inst, out...)

	return nil
}

// operands consumes instruction arguments left to right. The first failure
// sticks and later calls return zero values.
type operands struct {
	a    *assembler
	args []string
	next int
	err  error
}

func (p *operands) take() (string, bool) {
	if p.err != nil {
		return "", false
	}

	if p.next >= len(p.args) {
		p.err = p.a.errorf("missing operand %d", p.next+1)

		return "", false
	}

	s := p.args[p.next]
	p.next++

	return s, true
}

func (p *operands) reg() byte {
	s, ok := p.take()
	if !ok {
		return 0
	}

	r, ok := pvm.ParseReg(s)
	if !ok {
		p.err = p.a.errorf("bad register %q", s)
	}

	return byte(r)
}

// imm encodes a 32 bit immediate in its shortest sign extended form.
func (p *operands) imm() []byte {
	s, ok := p.take()
	if !ok {
		return nil
	}

	var v int64

	if label, ok := strings.CutPrefix(s, "&"); ok {
		if !isIdent(label) {
			p.err = p.a.errorf("bad label %q", label)

			return nil
		}

		v = int64(p.a.jumpAddress(label))
	} else {
		n, err := p.a.signed(s)
		if err != nil {
			p.err = err

			return nil
		}

		v = n
	}

	if v >= 1<<31 && v < 1<<32 {
		v = int64(int32(uint32(v)))
	}

	if v < math.MinInt32 || v > math.MaxInt32 {
		p.err = p.a.errorf("immediate %s does not fit in 32 bits", s)

		return nil
	}

	return encodeImm(v)
}

func (p *operands) imm64() []byte {
	s, ok := p.take()
	if !ok {
		return nil
	}

	v, err := p.a.number(s)
	if err != nil {
		n, serr := p.a.signed(s)
		if serr != nil {
			p.err = err

			return nil
		}

		v = uint64(n)
	}

	out := make([]byte, 8)
	for i := range out {
		out[i] = byte(v >> (8 * i))
	}

	return out
}

// offset reserves a 4 byte jump offset, resolved once all labels are known.
// at is the position of the field within the instruction's operand bytes.
func (p *operands) offset(pc uint32, at int) []byte {
	s, ok := p.take()
	if !ok {
		return nil
	}

	label := strings.TrimPrefix(s, "@")
	if !isIdent(label) {
		p.err = p.a.errorf("bad jump target %q", s)

		return nil
	}

	p.a.fixups = append(p.a.fixups, fixup{
		at:    int(pc) + 1 + at,
		pc:    pc,
		label: label,
		line:  p.a.line,
	})

	return make([]byte, 4)
}

func encodeImm(v int64) []byte {
	for n := 0; n <= 4; n++ {
		shift := uint(64 - 8*n)
		if n == 0 && v == 0 || n > 0 && (v<<shift)>>shift == v {
			out := make([]byte, n)
			for i := range out {
				out[i] = byte(v >> (8 * i))
			}

			return out
		}
	}

	return nil
}

func (a *assembler) number(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, a.errorf("bad number %q", s)
	}

	return v, nil
}

func (a *assembler) signed(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}

	v, err := a.number(s)
	if err != nil {
		return 0, err
	}

	if v > math.MaxUint32 {
		return 0, a.errorf("immediate %s does not fit in 32 bits", s)
	}

	return int64(v), nil
}

func (a *assembler) resolve(label string, line int) (uint32, error) {
	pc, ok := a.labels[label]
	if !ok {
		return 0, &Error{Line: line, Msg: fmt.Sprintf("undefined label %q", label)}
	}

	return pc, nil
}

func (a *assembler) finish() (*pvm.ProgramBlob, error) {
	for _, f := range a.fixups {
		target, err := a.resolve(f.label, f.line)
		if err != nil {
			return nil, err
		}

		off := target - f.pc
		for i := range 4 {
			a.code[f.at+i] = byte(off >> (8 * i))
		}
	}

	for _, e := range a.exports {
		pc, err := a.resolve(e.label, e.line)
		if err != nil {
			return nil, err
		}

		if pc >= uint32(len(a.code)) {
			return nil, &Error{Line: e.line, Msg: fmt.Sprintf("export %q has no code", e.label)}
		}

		a.blob.Exports = append(a.blob.Exports, pvm.Export{Name: e.label, PC: pc})
	}

	for _, j := range a.jumpTable {
		pc, err := a.resolve(j.label, j.line)
		if err != nil {
			return nil, err
		}

		a.blob.JumpTable = append(a.blob.JumpTable, pc)
	}

	a.blob.ROSize = max(a.blob.ROSize, uint32(len(a.blob.ROData)))
	a.blob.RWSize = max(a.blob.RWSize, uint32(len(a.blob.RWData)))
	a.blob.Code = a.code
	a.blob.Bitmask = pvm.PackBitmask(len(a.code), a.starts)

	blob := a.blob

	return &blob, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		switch {
		case c == '_' || c == '.' && i > 0:
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
