package pvm

import (
	"fmt"

	cm "github.com/weiihann/gasbench/costmodel"
)

// GasMeteringKind selects whether and how a module charges gas.
type GasMeteringKind uint8

const (
	// GasMeteringNone runs guest code without charging gas.
	GasMeteringNone GasMeteringKind = iota
	// GasMeteringSync charges every basic block before it executes.
	GasMeteringSync
)

// ModuleConfig holds per module options.
type ModuleConfig struct {
	GasMetering GasMeteringKind
	// AuxDataSize is the exact size of the host writable aux region.
	AuxDataSize uint32
}

// maxSkip bounds the operand length of a single instruction.
const maxSkip = 24

// instruction is a decoded guest instruction. Register fields hold indices
// into the register file; their meaning depends on the operand form.
type instruction struct {
	inst    cm.Instruction
	a, b, d uint8
	imm1    uint64
	imm2    uint64
	pc      uint32
	// target is the instruction index of a static jump target, or -1 when
	// the target is not the start of a basic block.
	target int32
	// blockCost is the gas charged on entry, or -1 inside a block.
	blockCost int64
}

// Module is a program blob compiled against an engine. It is immutable and
// may be instantiated any number of times.
type Module struct {
	engine    *Engine
	blob      *ProgramBlob
	cfg       ModuleConfig
	memoryMap MemoryMap
	code      []instruction
	// index maps a code offset to its instruction index, or -1.
	index []int32
	// jumpTable holds instruction indices for dynamic jump targets, -1 for
	// entries that do not start a basic block.
	jumpTable []int32
}

// NewModule decodes blob and prepares it for execution.
func NewModule(engine *Engine, cfg ModuleConfig, blob *ProgramBlob) (*Module, error) {
	mm, err := newMemoryMap(blob, cfg.AuxDataSize)
	if err != nil {
		return nil, err
	}

	m := &Module{
		engine:    engine,
		blob:      blob,
		cfg:       cfg,
		memoryMap: mm,
	}

	m.decode()

	for _, e := range blob.Exports {
		if !m.isBlockStart(e.PC) {
			return nil, fmt.Errorf("export %q (pc %d) is not the start of a basic block", e.Name, e.PC)
		}
	}

	return m, nil
}

func (m *Module) decode() {
	code := m.blob.Code
	costs := m.engine.costs

	m.index = make([]int32, len(code)+1)
	for i := range m.index {
		m.index[i] = -1
	}

	blockStart := true

	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		skip := m.skip(pc)
		end := min(pc+1+skip, len(code))

		ins := decodeInstruction(op, code[pc+1:end], uint32(pc))
		ins.blockCost = -1

		if blockStart {
			ins.blockCost = 0
		}

		m.index[pc] = int32(len(m.code))
		m.code = append(m.code, ins)
		blockStart = IsTerminator(ins.inst)
		pc += 1 + skip
	}

	// Falling off the end of the code traps.
	m.index[len(code)] = int32(len(m.code))
	m.code = append(m.code, instruction{
		inst:      cm.Invalid,
		pc:        uint32(len(code)),
		target:    -1,
		blockCost: -1,
	})

	// Each block pays for all of its instructions up front.
	var current *instruction
	for i := range m.code[:len(m.code)-1] {
		ins := &m.code[i]
		if ins.blockCost >= 0 {
			current = ins
		}

		current.blockCost += int64(costs.Cost(ins.inst))
	}

	for i := range m.code {
		ins := &m.code[i]
		if hasStaticTarget(ins.inst) {
			ins.target = m.blockIndex(uint64(ins.target))
		}
	}

	m.jumpTable = make([]int32, len(m.blob.JumpTable))
	for i, pc := range m.blob.JumpTable {
		m.jumpTable[i] = m.blockIndex(uint64(pc))
	}
}

// skip returns the operand length of the instruction at pc: the distance to
// the next instruction start, capped at maxSkip. Offsets past the end of the
// code count as instruction starts.
func (m *Module) skip(pc int) int {
	for n := 0; n < maxSkip; n++ {
		next := pc + 1 + n
		if next >= len(m.blob.Code) || m.blob.IsInstructionStart(uint32(next)) {
			return n
		}
	}

	return maxSkip
}

func (m *Module) blockIndex(pc uint64) int32 {
	if pc >= uint64(len(m.blob.Code)) {
		return -1
	}

	idx := m.index[pc]
	if idx < 0 || m.code[idx].blockCost < 0 {
		return -1
	}

	return idx
}

func (m *Module) isBlockStart(pc uint32) bool {
	return m.blockIndex(uint64(pc)) >= 0
}

// Exports returns the module's named entry points.
func (m *Module) Exports() []Export {
	return m.blob.Exports
}

// ExportPC returns the program counter of the named export.
func (m *Module) ExportPC(name string) (uint32, bool) {
	e, ok := m.blob.Export(name)

	return e.PC, ok
}

// MemoryMap returns the module's address space layout.
func (m *Module) MemoryMap() MemoryMap {
	return m.memoryMap
}

// DefaultSP is the initial stack pointer for a fresh instance.
func (m *Module) DefaultSP() uint32 {
	return m.memoryMap.StackAddressHigh
}

// Engine returns the engine the module was compiled with.
func (m *Module) Engine() *Engine {
	return m.engine
}

// BlockCost returns the gas charged on entry to the basic block at pc.
func (m *Module) BlockCost(pc uint32) (int64, bool) {
	idx := m.blockIndex(uint64(pc))
	if idx < 0 {
		return 0, false
	}

	return m.code[idx].blockCost, true
}

// Instantiate creates a fresh instance with its own memory. Callers must
// Close it.
func (m *Module) Instantiate() (*Instance, error) {
	mem, err := newMemory(m.memoryMap, m.blob)
	if err != nil {
		return nil, err
	}

	return &Instance{
		module:  m,
		mem:     mem,
		metered: m.cfg.GasMetering == GasMeteringSync,
		trace:   m.engine.cfg.TraceExecution,
		idx:     -1,
	}, nil
}

func hasStaticTarget(inst cm.Instruction) bool {
	switch inst {
	case cm.Jump, cm.LoadImmAndJump,
		cm.BranchEqImm, cm.BranchNotEqImm,
		cm.BranchLessUnsignedImm, cm.BranchLessOrEqualUnsignedImm,
		cm.BranchGreaterOrEqualUnsignedImm, cm.BranchGreaterUnsignedImm,
		cm.BranchLessSignedImm, cm.BranchLessOrEqualSignedImm,
		cm.BranchGreaterOrEqualSignedImm, cm.BranchGreaterSignedImm,
		cm.BranchEq, cm.BranchNotEq,
		cm.BranchLessUnsigned, cm.BranchLessSigned,
		cm.BranchGreaterOrEqualUnsigned, cm.BranchGreaterOrEqualSigned:
		return true
	}

	return false
}
