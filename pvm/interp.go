package pvm

import (
	"encoding/binary"
	"math"
	"math/bits"

	cm "github.com/weiihann/gasbench/costmodel"
)

// jumpFinished marks a dynamic jump to ReturnToHost.
const jumpFinished = -2

// access describes the width and signedness of a memory instruction.
type access struct {
	width  uint32
	signed bool
}

var accesses [cm.NumInstructions]access

func init() {
	for _, group := range []struct {
		a     access
		insts []cm.Instruction
	}{
		{access{1, false}, []cm.Instruction{cm.LoadU8, cm.LoadIndirectU8, cm.StoreU8, cm.StoreIndirectU8, cm.StoreImmU8, cm.StoreImmIndirectU8}},
		{access{1, true}, []cm.Instruction{cm.LoadI8, cm.LoadIndirectI8}},
		{access{2, false}, []cm.Instruction{cm.LoadU16, cm.LoadIndirectU16, cm.StoreU16, cm.StoreIndirectU16, cm.StoreImmU16, cm.StoreImmIndirectU16}},
		{access{2, true}, []cm.Instruction{cm.LoadI16, cm.LoadIndirectI16}},
		{access{4, false}, []cm.Instruction{cm.LoadU32, cm.LoadIndirectU32, cm.StoreU32, cm.StoreIndirectU32, cm.StoreImmU32, cm.StoreImmIndirectU32}},
		{access{4, true}, []cm.Instruction{cm.LoadI32, cm.LoadIndirectI32}},
		{access{8, false}, []cm.Instruction{cm.LoadU64, cm.LoadIndirectU64, cm.StoreU64, cm.StoreIndirectU64, cm.StoreImmU64, cm.StoreImmIndirectU64}},
	} {
		for _, inst := range group.insts {
			accesses[inst] = group.a
		}
	}
}

func s32(v uint64) uint64 {
	return uint64(int64(int32(uint32(v))))
}

func flag(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}

func (m *Module) dynamicTarget(addr uint32) int32 {
	if addr == ReturnToHost {
		return jumpFinished
	}

	if addr == 0 || addr%2 != 0 || uint64(addr/2) > uint64(len(m.jumpTable)) {
		return -1
	}

	return m.jumpTable[addr/2-1]
}

func (in *Instance) load(addr uint32, a access) (uint64, bool) {
	b := in.mem.guest(addr, a.width, false)
	if b == nil {
		return 0, false
	}

	var v uint64

	switch a.width {
	case 1:
		v = uint64(b[0])
		if a.signed {
			v = uint64(int64(int8(b[0])))
		}
	case 2:
		v = uint64(binary.LittleEndian.Uint16(b))
		if a.signed {
			v = uint64(int64(int16(v)))
		}
	case 4:
		v = uint64(binary.LittleEndian.Uint32(b))
		if a.signed {
			v = uint64(int64(int32(v)))
		}
	default:
		v = binary.LittleEndian.Uint64(b)
	}

	return v, true
}

func (in *Instance) store(addr uint32, width uint32, v uint64) bool {
	b := in.mem.guest(addr, width, true)
	if b == nil {
		return false
	}

	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}

	return true
}

// Run executes guest code from the current program counter until the guest
// finishes, faults, runs out of gas or makes a host call.
func (in *Instance) Run() (Interrupt, error) {
	switch {
	case in.mem == nil:
		return Interrupt{}, ErrClosed
	case in.halted:
		return Interrupt{}, ErrHalted
	case in.idx < 0:
		return Interrupt{}, ErrNoProgramCounter
	}

	code := in.module.code
	regs := &in.regs
	idx := in.idx
	paid := in.paid
	in.paid = false

	for {
		ins := &code[idx]

		if in.metered && ins.blockCost >= 0 && !paid {
			if in.gas < ins.blockCost {
				in.idx = idx

				return Interrupt{Kind: NotEnoughGas}, nil
			}

			in.gas -= ins.blockCost
		}

		paid = false

		if in.trace {
			in.traceStep(ins)
		}

		next := idx + 1
		jump := false
		target := int32(-1)

		switch ins.inst {
		case cm.Trap, cm.Invalid:
			return in.halt(idx, Interrupt{Kind: Trap})

		case cm.Fallthrough:

		case cm.Memset:
			count := regs[A2]
			if in.metered && (count > math.MaxInt64 || in.gas < int64(count)) {
				in.idx = idx
				in.paid = true

				return Interrupt{Kind: NotEnoughGas}, nil
			}

			if count > 0 {
				dst := regs[A0]
				if count > math.MaxUint32 {
					return in.segfault(idx, uint32(dst))
				}

				b := in.mem.guest(uint32(dst), uint32(count), true)
				if b == nil {
					return in.segfault(idx, uint32(dst))
				}

				if in.metered {
					in.gas -= int64(count)
				}

				fill := byte(regs[A1])
				for i := range b {
					b[i] = fill
				}

				regs[A0] = dst + count
				regs[A2] = 0
			}

		case cm.Ecalli:
			in.idx = next

			return Interrupt{Kind: Ecalli, HostCall: uint32(ins.imm1)}, nil

		case cm.LoadImm64, cm.LoadImm:
			regs[ins.a] = ins.imm1

		// Memory.
		case cm.LoadU8, cm.LoadI8, cm.LoadU16, cm.LoadI16, cm.LoadU32, cm.LoadI32, cm.LoadU64:
			addr := uint32(ins.imm1)

			v, ok := in.load(addr, accesses[ins.inst])
			if !ok {
				return in.segfault(idx, addr)
			}

			regs[ins.a] = v

		case cm.LoadIndirectU8, cm.LoadIndirectI8, cm.LoadIndirectU16, cm.LoadIndirectI16,
			cm.LoadIndirectU32, cm.LoadIndirectI32, cm.LoadIndirectU64:
			addr := uint32(regs[ins.b] + ins.imm1)

			v, ok := in.load(addr, accesses[ins.inst])
			if !ok {
				return in.segfault(idx, addr)
			}

			regs[ins.a] = v

		case cm.StoreU8, cm.StoreU16, cm.StoreU32, cm.StoreU64:
			addr := uint32(ins.imm1)
			if !in.store(addr, accesses[ins.inst].width, regs[ins.a]) {
				return in.segfault(idx, addr)
			}

		case cm.StoreIndirectU8, cm.StoreIndirectU16, cm.StoreIndirectU32, cm.StoreIndirectU64:
			addr := uint32(regs[ins.b] + ins.imm1)
			if !in.store(addr, accesses[ins.inst].width, regs[ins.a]) {
				return in.segfault(idx, addr)
			}

		case cm.StoreImmU8, cm.StoreImmU16, cm.StoreImmU32, cm.StoreImmU64:
			addr := uint32(ins.imm1)
			if !in.store(addr, accesses[ins.inst].width, ins.imm2) {
				return in.segfault(idx, addr)
			}

		case cm.StoreImmIndirectU8, cm.StoreImmIndirectU16, cm.StoreImmIndirectU32, cm.StoreImmIndirectU64:
			addr := uint32(regs[ins.a] + ins.imm1)
			if !in.store(addr, accesses[ins.inst].width, ins.imm2) {
				return in.segfault(idx, addr)
			}

		// Control flow.
		case cm.Jump:
			jump, target = true, ins.target

		case cm.JumpIndirect:
			jump, target = true, in.module.dynamicTarget(uint32(regs[ins.a]+ins.imm1))

		case cm.LoadImmAndJump:
			regs[ins.a] = ins.imm1
			jump, target = true, ins.target

		case cm.LoadImmAndJumpIndirect:
			addr := uint32(regs[ins.b] + ins.imm2)
			regs[ins.a] = ins.imm1
			jump, target = true, in.module.dynamicTarget(addr)

		case cm.BranchEqImm, cm.BranchNotEqImm,
			cm.BranchLessUnsignedImm, cm.BranchLessOrEqualUnsignedImm,
			cm.BranchGreaterOrEqualUnsignedImm, cm.BranchGreaterUnsignedImm,
			cm.BranchLessSignedImm, cm.BranchLessOrEqualSignedImm,
			cm.BranchGreaterOrEqualSignedImm, cm.BranchGreaterSignedImm:
			if branchTaken(ins.inst, regs[ins.a], ins.imm1) {
				jump, target = true, ins.target
			}

		case cm.BranchEq, cm.BranchNotEq,
			cm.BranchLessUnsigned, cm.BranchLessSigned,
			cm.BranchGreaterOrEqualUnsigned, cm.BranchGreaterOrEqualSigned:
			if branchTaken(ins.inst, regs[ins.a], regs[ins.b]) {
				jump, target = true, ins.target
			}

		// Register and immediate arithmetic.
		case cm.CmovIfZeroImm:
			if regs[ins.b] == 0 {
				regs[ins.a] = ins.imm1
			}

		case cm.CmovIfNotZeroImm:
			if regs[ins.b] != 0 {
				regs[ins.a] = ins.imm1
			}

		case cm.AddImm32, cm.AndImm, cm.XorImm, cm.OrImm, cm.MulImm32,
			cm.SetLessThanUnsignedImm, cm.SetLessThanSignedImm,
			cm.ShiftLogicalLeftImm32, cm.ShiftLogicalRightImm32, cm.ShiftArithmeticRightImm32,
			cm.NegateAndAddImm32,
			cm.SetGreaterThanUnsignedImm, cm.SetGreaterThanSignedImm,
			cm.ShiftLogicalLeftImmAlt32, cm.ShiftLogicalRightImmAlt32, cm.ShiftArithmeticRightImmAlt32,
			cm.AddImm64, cm.MulImm64,
			cm.ShiftLogicalLeftImm64, cm.ShiftLogicalRightImm64, cm.ShiftArithmeticRightImm64,
			cm.NegateAndAddImm64,
			cm.ShiftLogicalLeftImmAlt64, cm.ShiftLogicalRightImmAlt64, cm.ShiftArithmeticRightImmAlt64,
			cm.RotateRightImm64, cm.RotateRightImmAlt64,
			cm.RotateRightImm32, cm.RotateRightImmAlt32:
			regs[ins.a] = aluImm(ins.inst, regs[ins.b], ins.imm1)

		// Register arithmetic.
		case cm.CmovIfZero:
			if regs[ins.b] == 0 {
				regs[ins.d] = regs[ins.a]
			}

		case cm.CmovIfNotZero:
			if regs[ins.b] != 0 {
				regs[ins.d] = regs[ins.a]
			}

		case cm.Sbrk:
			regs[ins.d] = 0

			if size := regs[ins.a]; size <= math.MaxUint32 {
				if top, ok := in.mem.sbrk(uint32(size)); ok {
					regs[ins.d] = uint64(top)
				}
			}

		case cm.MoveReg,
			cm.CountSetBits64, cm.CountSetBits32,
			cm.CountLeadingZeroBits64, cm.CountLeadingZeroBits32,
			cm.CountTrailingZeroBits64, cm.CountTrailingZeroBits32,
			cm.SignExtend8, cm.SignExtend16, cm.ZeroExtend16, cm.ReverseByte:
			regs[ins.d] = unary(ins.inst, regs[ins.a])

		default:
			regs[ins.d] = alu(ins.inst, regs[ins.a], regs[ins.b])
		}

		if jump {
			switch {
			case target == jumpFinished:
				return in.halt(idx, Interrupt{Kind: Finished})
			case target < 0:
				return in.halt(idx, Interrupt{Kind: Trap})
			}

			next = int(target)
		}

		idx = next
	}
}

func branchTaken(inst cm.Instruction, x, y uint64) bool {
	switch inst {
	case cm.BranchEqImm, cm.BranchEq:
		return x == y
	case cm.BranchNotEqImm, cm.BranchNotEq:
		return x != y
	case cm.BranchLessUnsignedImm, cm.BranchLessUnsigned:
		return x < y
	case cm.BranchLessOrEqualUnsignedImm:
		return x <= y
	case cm.BranchGreaterOrEqualUnsignedImm, cm.BranchGreaterOrEqualUnsigned:
		return x >= y
	case cm.BranchGreaterUnsignedImm:
		return x > y
	case cm.BranchLessSignedImm, cm.BranchLessSigned:
		return int64(x) < int64(y)
	case cm.BranchLessOrEqualSignedImm:
		return int64(x) <= int64(y)
	case cm.BranchGreaterOrEqualSignedImm, cm.BranchGreaterOrEqualSigned:
		return int64(x) >= int64(y)
	case cm.BranchGreaterSignedImm:
		return int64(x) > int64(y)
	}

	return false
}

// aluImm evaluates an instruction taking a register x and an immediate.
// The Alt forms swap the roles: the immediate is shifted by the register.
func aluImm(inst cm.Instruction, x, imm uint64) uint64 {
	switch inst {
	case cm.AddImm32:
		return s32(x + imm)
	case cm.AndImm:
		return x & imm
	case cm.XorImm:
		return x ^ imm
	case cm.OrImm:
		return x | imm
	case cm.MulImm32:
		return s32(x * imm)
	case cm.SetLessThanUnsignedImm:
		return flag(x < imm)
	case cm.SetLessThanSignedImm:
		return flag(int64(x) < int64(imm))
	case cm.SetGreaterThanUnsignedImm:
		return flag(x > imm)
	case cm.SetGreaterThanSignedImm:
		return flag(int64(x) > int64(imm))
	case cm.NegateAndAddImm32:
		return s32(imm - x)
	case cm.NegateAndAddImm64:
		return imm - x
	case cm.AddImm64:
		return x + imm
	case cm.MulImm64:
		return x * imm
	case cm.ShiftLogicalLeftImm32, cm.ShiftLogicalRightImm32, cm.ShiftArithmeticRightImm32,
		cm.ShiftLogicalLeftImm64, cm.ShiftLogicalRightImm64, cm.ShiftArithmeticRightImm64,
		cm.RotateRightImm32, cm.RotateRightImm64:
		return shift(inst, x, imm)
	case cm.ShiftLogicalLeftImmAlt32:
		return shift(cm.ShiftLogicalLeftImm32, imm, x)
	case cm.ShiftLogicalRightImmAlt32:
		return shift(cm.ShiftLogicalRightImm32, imm, x)
	case cm.ShiftArithmeticRightImmAlt32:
		return shift(cm.ShiftArithmeticRightImm32, imm, x)
	case cm.ShiftLogicalLeftImmAlt64:
		return shift(cm.ShiftLogicalLeftImm64, imm, x)
	case cm.ShiftLogicalRightImmAlt64:
		return shift(cm.ShiftLogicalRightImm64, imm, x)
	case cm.ShiftArithmeticRightImmAlt64:
		return shift(cm.ShiftArithmeticRightImm64, imm, x)
	case cm.RotateRightImmAlt32:
		return shift(cm.RotateRightImm32, imm, x)
	case cm.RotateRightImmAlt64:
		return shift(cm.RotateRightImm64, imm, x)
	}

	return 0
}

// shift evaluates the shift and rotate family with the amount masked to the
// operand width.
func shift(inst cm.Instruction, x, n uint64) uint64 {
	switch inst {
	case cm.ShiftLogicalLeftImm32, cm.ShiftLogicalLeft32:
		return s32(uint64(uint32(x) << (n & 31)))
	case cm.ShiftLogicalRightImm32, cm.ShiftLogicalRight32:
		return s32(uint64(uint32(x) >> (n & 31)))
	case cm.ShiftArithmeticRightImm32, cm.ShiftArithmeticRight32:
		return uint64(int64(int32(uint32(x)) >> (n & 31)))
	case cm.ShiftLogicalLeftImm64, cm.ShiftLogicalLeft64:
		return x << (n & 63)
	case cm.ShiftLogicalRightImm64, cm.ShiftLogicalRight64:
		return x >> (n & 63)
	case cm.ShiftArithmeticRightImm64, cm.ShiftArithmeticRight64:
		return uint64(int64(x) >> (n & 63))
	case cm.RotateRightImm32, cm.RotateRight32:
		return s32(uint64(bits.RotateLeft32(uint32(x), -int(n&31))))
	case cm.RotateRightImm64, cm.RotateRight64:
		return bits.RotateLeft64(x, -int(n&63))
	case cm.RotateLeft32:
		return s32(uint64(bits.RotateLeft32(uint32(x), int(n&31))))
	case cm.RotateLeft64:
		return bits.RotateLeft64(x, int(n&63))
	}

	return 0
}

func unary(inst cm.Instruction, x uint64) uint64 {
	switch inst {
	case cm.MoveReg:
		return x
	case cm.CountSetBits64:
		return uint64(bits.OnesCount64(x))
	case cm.CountSetBits32:
		return uint64(bits.OnesCount32(uint32(x)))
	case cm.CountLeadingZeroBits64:
		return uint64(bits.LeadingZeros64(x))
	case cm.CountLeadingZeroBits32:
		return uint64(bits.LeadingZeros32(uint32(x)))
	case cm.CountTrailingZeroBits64:
		return uint64(bits.TrailingZeros64(x))
	case cm.CountTrailingZeroBits32:
		return uint64(bits.TrailingZeros32(uint32(x)))
	case cm.SignExtend8:
		return uint64(int64(int8(x)))
	case cm.SignExtend16:
		return uint64(int64(int16(x)))
	case cm.ZeroExtend16:
		return uint64(uint16(x))
	case cm.ReverseByte:
		return bits.ReverseBytes64(x)
	}

	return 0
}

// alu evaluates the three register instructions. Division by zero yields
// all ones, remainder by zero yields the dividend.
func alu(inst cm.Instruction, x, y uint64) uint64 {
	switch inst {
	case cm.Add32:
		return s32(x + y)
	case cm.Sub32:
		return s32(x - y)
	case cm.Mul32:
		return s32(x * y)
	case cm.DivUnsigned32:
		if uint32(y) == 0 {
			return math.MaxUint64
		}

		return s32(uint64(uint32(x) / uint32(y)))
	case cm.DivSigned32:
		a, b := int32(uint32(x)), int32(uint32(y))

		switch {
		case b == 0:
			return math.MaxUint64
		case a == math.MinInt32 && b == -1:
			return uint64(int64(a))
		}

		return uint64(int64(a / b))
	case cm.RemUnsigned32:
		if uint32(y) == 0 {
			return s32(x)
		}

		return s32(uint64(uint32(x) % uint32(y)))
	case cm.RemSigned32:
		a, b := int32(uint32(x)), int32(uint32(y))

		switch {
		case b == 0:
			return uint64(int64(a))
		case a == math.MinInt32 && b == -1:
			return 0
		}

		return uint64(int64(a % b))
	case cm.Add64:
		return x + y
	case cm.Sub64:
		return x - y
	case cm.Mul64:
		return x * y
	case cm.DivUnsigned64:
		if y == 0 {
			return math.MaxUint64
		}

		return x / y
	case cm.DivSigned64:
		a, b := int64(x), int64(y)

		switch {
		case b == 0:
			return math.MaxUint64
		case a == math.MinInt64 && b == -1:
			return x
		}

		return uint64(a / b)
	case cm.RemUnsigned64:
		if y == 0 {
			return x
		}

		return x % y
	case cm.RemSigned64:
		a, b := int64(x), int64(y)

		switch {
		case b == 0:
			return x
		case a == math.MinInt64 && b == -1:
			return 0
		}

		return uint64(a % b)
	case cm.ShiftLogicalLeft32, cm.ShiftLogicalRight32, cm.ShiftArithmeticRight32,
		cm.ShiftLogicalLeft64, cm.ShiftLogicalRight64, cm.ShiftArithmeticRight64,
		cm.RotateLeft32, cm.RotateLeft64, cm.RotateRight32, cm.RotateRight64:
		return shift(inst, x, y)
	case cm.And:
		return x & y
	case cm.Xor:
		return x ^ y
	case cm.Or:
		return x | y
	case cm.AndInverted:
		return x &^ y
	case cm.OrInverted:
		return x | ^y
	case cm.Xnor:
		return ^(x ^ y)
	case cm.MulUpperUnsignedUnsigned:
		hi, _ := bits.Mul64(x, y)

		return hi
	case cm.MulUpperSignedSigned:
		hi, _ := bits.Mul64(x, y)
		if int64(x) < 0 {
			hi -= y
		}

		if int64(y) < 0 {
			hi -= x
		}

		return hi
	case cm.MulUpperSignedUnsigned:
		hi, _ := bits.Mul64(x, y)
		if int64(x) < 0 {
			hi -= y
		}

		return hi
	case cm.SetLessThanUnsigned:
		return flag(x < y)
	case cm.SetLessThanSigned:
		return flag(int64(x) < int64(y))
	case cm.Maximum:
		return uint64(max(int64(x), int64(y)))
	case cm.MaximumUnsigned:
		return max(x, y)
	case cm.Minimum:
		return uint64(min(int64(x), int64(y)))
	case cm.MinimumUnsigned:
		return min(x, y)
	}

	return 0
}
