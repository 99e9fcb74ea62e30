package pvm

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrClosed is returned when using an instance after Close.
	ErrClosed = errors.New("instance is closed")
	// ErrHalted is returned by Run once the guest finished or faulted and no
	// new program counter was set.
	ErrHalted = errors.New("instance has halted")
	// ErrNoProgramCounter is returned by Run before SetNextProgramCounter.
	ErrNoProgramCounter = errors.New("program counter not set")
)

// Instance is one execution of a module: registers, gas and private memory.
// It is not safe for concurrent use.
type Instance struct {
	module  *Module
	mem     *memory
	regs    [NumRegs]uint64
	gas     int64
	metered bool
	trace   bool

	// idx is the instruction to execute next, -1 when unset.
	idx    int
	halted bool
	// paid is set when the block at idx was charged but did not run.
	paid bool
}

// SetNextProgramCounter sets where the next Run starts. A pc that is not an
// instruction start traps on Run.
func (in *Instance) SetNextProgramCounter(pc uint32) {
	code := in.module.code
	in.idx = len(code) - 1

	if uint64(pc) < uint64(len(in.module.index)-1) {
		if idx := in.module.index[pc]; idx >= 0 {
			in.idx = int(idx)
		}
	}

	in.halted = false
	in.paid = false
}

// ProgramCounter returns the pc Run will resume from.
func (in *Instance) ProgramCounter() (uint32, bool) {
	if in.idx < 0 || in.halted {
		return 0, false
	}

	return in.module.code[in.idx].pc, true
}

// SetReg writes a register.
func (in *Instance) SetReg(r Reg, v uint64) {
	in.regs[r] = v
}

// Reg reads a register.
func (in *Instance) Reg(r Reg) uint64 {
	return in.regs[r]
}

// SetGas sets the remaining gas.
func (in *Instance) SetGas(gas int64) {
	in.gas = gas
}

// Gas returns the remaining gas.
func (in *Instance) Gas() int64 {
	return in.gas
}

// WriteMemory copies data into guest memory, ignoring guest write
// protection. The whole range must be mapped.
func (in *Instance) WriteMemory(addr uint32, data []byte) error {
	if in.mem == nil {
		return ErrClosed
	}

	if len(data) == 0 {
		return nil
	}

	if uint64(len(data)) > uint64(^uint32(0)) {
		return ErrOutOfBounds
	}

	dst := in.mem.host(addr, uint32(len(data)))
	if dst == nil {
		return ErrOutOfBounds
	}

	copy(dst, data)

	return nil
}

// ReadMemory copies n bytes of guest memory starting at addr.
func (in *Instance) ReadMemory(addr, n uint32) ([]byte, error) {
	if in.mem == nil {
		return nil, ErrClosed
	}

	if n == 0 {
		return []byte{}, nil
	}

	src := in.mem.host(addr, n)
	if src == nil {
		return nil, ErrOutOfBounds
	}

	return append([]byte(nil), src...), nil
}

// Close releases the instance memory. It is safe to call more than once.
func (in *Instance) Close() error {
	if in.mem == nil {
		return nil
	}

	err := in.mem.release()
	in.mem = nil

	return err
}

func (in *Instance) halt(idx int, intr Interrupt) (Interrupt, error) {
	in.idx = idx
	in.halted = true

	return intr, nil
}

func (in *Instance) segfault(idx int, addr uint32) (Interrupt, error) {
	return in.halt(idx, Interrupt{Kind: Segfault, PageAddress: pageOf(addr)})
}

func (in *Instance) traceStep(ins *instruction) {
	in.module.engine.logger.Log(context.Background(), LevelTrace, "step",
		slog.Uint64("pc", uint64(ins.pc)),
		slog.String("inst", ins.inst.String()),
		slog.Int64("gas", in.gas),
	)
}
