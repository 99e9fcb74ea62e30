package pvm

import (
	cm "github.com/weiihann/gasbench/costmodel"
)

// Opcode is the first byte of an encoded instruction.
type Opcode uint8

// Form describes how an instruction's operand bytes are laid out.
type Form uint8

// Operand layouts.
const (
	FormNoArgs Form = iota
	FormOneImm
	FormRegExtImm
	FormTwoImm
	FormOneOffset
	FormRegImm
	FormRegTwoImm
	FormRegImmOffset
	FormTwoRegs
	FormTwoRegsImm
	FormTwoRegsOffset
	FormTwoRegsTwoImm
	FormThreeRegs
)

type opcodeInfo struct {
	inst  cm.Instruction
	form  Form
	known bool
}

var (
	opcodeTable [256]opcodeInfo
	instOpcodes [cm.NumInstructions]Opcode
	instKnown   [cm.NumInstructions]bool
)

func def(code Opcode, form Form, insts ...cm.Instruction) {
	for i, inst := range insts {
		op := code + Opcode(i)
		opcodeTable[op] = opcodeInfo{inst: inst, form: form, known: true}
		instOpcodes[inst] = op
		instKnown[inst] = true
	}
}

func init() {
	def(0, FormNoArgs, cm.Trap, cm.Fallthrough, cm.Memset)
	def(10, FormOneImm, cm.Ecalli)
	def(20, FormRegExtImm, cm.LoadImm64)
	def(30, FormTwoImm, cm.StoreImmU8, cm.StoreImmU16, cm.StoreImmU32, cm.StoreImmU64)
	def(40, FormOneOffset, cm.Jump)
	def(50, FormRegImm,
		cm.JumpIndirect, cm.LoadImm,
		cm.LoadU8, cm.LoadI8, cm.LoadU16, cm.LoadI16, cm.LoadU32, cm.LoadI32, cm.LoadU64,
		cm.StoreU8, cm.StoreU16, cm.StoreU32, cm.StoreU64)
	def(70, FormRegTwoImm,
		cm.StoreImmIndirectU8, cm.StoreImmIndirectU16,
		cm.StoreImmIndirectU32, cm.StoreImmIndirectU64)
	def(80, FormRegImmOffset,
		cm.LoadImmAndJump,
		cm.BranchEqImm, cm.BranchNotEqImm,
		cm.BranchLessUnsignedImm, cm.BranchLessOrEqualUnsignedImm,
		cm.BranchGreaterOrEqualUnsignedImm, cm.BranchGreaterUnsignedImm,
		cm.BranchLessSignedImm, cm.BranchLessOrEqualSignedImm,
		cm.BranchGreaterOrEqualSignedImm, cm.BranchGreaterSignedImm)
	def(100, FormTwoRegs,
		cm.MoveReg, cm.Sbrk,
		cm.CountSetBits64, cm.CountSetBits32,
		cm.CountLeadingZeroBits64, cm.CountLeadingZeroBits32,
		cm.CountTrailingZeroBits64, cm.CountTrailingZeroBits32,
		cm.SignExtend8, cm.SignExtend16, cm.ZeroExtend16, cm.ReverseByte)
	def(120, FormTwoRegsImm,
		cm.StoreIndirectU8, cm.StoreIndirectU16, cm.StoreIndirectU32, cm.StoreIndirectU64,
		cm.LoadIndirectU8, cm.LoadIndirectI8, cm.LoadIndirectU16, cm.LoadIndirectI16,
		cm.LoadIndirectU32, cm.LoadIndirectI32, cm.LoadIndirectU64,
		cm.AddImm32, cm.AndImm, cm.XorImm, cm.OrImm, cm.MulImm32,
		cm.SetLessThanUnsignedImm, cm.SetLessThanSignedImm,
		cm.ShiftLogicalLeftImm32, cm.ShiftLogicalRightImm32, cm.ShiftArithmeticRightImm32,
		cm.NegateAndAddImm32,
		cm.SetGreaterThanUnsignedImm, cm.SetGreaterThanSignedImm,
		cm.ShiftLogicalLeftImmAlt32, cm.ShiftLogicalRightImmAlt32, cm.ShiftArithmeticRightImmAlt32,
		cm.CmovIfZeroImm, cm.CmovIfNotZeroImm,
		cm.AddImm64, cm.MulImm64,
		cm.ShiftLogicalLeftImm64, cm.ShiftLogicalRightImm64, cm.ShiftArithmeticRightImm64,
		cm.NegateAndAddImm64,
		cm.ShiftLogicalLeftImmAlt64, cm.ShiftLogicalRightImmAlt64, cm.ShiftArithmeticRightImmAlt64,
		cm.RotateRightImm64, cm.RotateRightImmAlt64,
		cm.RotateRightImm32, cm.RotateRightImmAlt32)
	def(170, FormTwoRegsOffset,
		cm.BranchEq, cm.BranchNotEq,
		cm.BranchLessUnsigned, cm.BranchLessSigned,
		cm.BranchGreaterOrEqualUnsigned, cm.BranchGreaterOrEqualSigned)
	def(180, FormTwoRegsTwoImm, cm.LoadImmAndJumpIndirect)
	def(190, FormThreeRegs,
		cm.Add32, cm.Sub32, cm.Mul32,
		cm.DivUnsigned32, cm.DivSigned32, cm.RemUnsigned32, cm.RemSigned32,
		cm.ShiftLogicalLeft32, cm.ShiftLogicalRight32, cm.ShiftArithmeticRight32,
		cm.Add64, cm.Sub64, cm.Mul64,
		cm.DivUnsigned64, cm.DivSigned64, cm.RemUnsigned64, cm.RemSigned64,
		cm.ShiftLogicalLeft64, cm.ShiftLogicalRight64, cm.ShiftArithmeticRight64,
		cm.And, cm.Xor, cm.Or,
		cm.MulUpperSignedSigned, cm.MulUpperUnsignedUnsigned, cm.MulUpperSignedUnsigned,
		cm.SetLessThanUnsigned, cm.SetLessThanSigned,
		cm.CmovIfZero, cm.CmovIfNotZero,
		cm.RotateLeft64, cm.RotateLeft32, cm.RotateRight64, cm.RotateRight32,
		cm.AndInverted, cm.OrInverted, cm.Xnor,
		cm.Maximum, cm.MaximumUnsigned, cm.Minimum, cm.MinimumUnsigned)
}

// Instruction returns the cost model entry the opcode is charged as.
// Opcodes outside the instruction set decode as cm.Invalid.
func (op Opcode) Instruction() cm.Instruction {
	if !opcodeTable[op].known {
		return cm.Invalid
	}

	return opcodeTable[op].inst
}

// Form returns the operand layout of the opcode.
func (op Opcode) Form() Form {
	return opcodeTable[op].form
}

// Known reports whether op is part of the instruction set.
func (op Opcode) Known() bool {
	return opcodeTable[op].known
}

func (op Opcode) String() string {
	return op.Instruction().String()
}

// OpcodeOf returns the encoding of inst. The pseudo instruction cm.Invalid
// has no encoding.
func OpcodeOf(inst cm.Instruction) (Opcode, bool) {
	if !inst.Valid() || !instKnown[inst] {
		return 0, false
	}

	return instOpcodes[inst], true
}

// IsTerminator reports whether inst ends a basic block.
func IsTerminator(inst cm.Instruction) bool {
	switch inst {
	case cm.Trap, cm.Fallthrough, cm.Invalid,
		cm.Jump, cm.JumpIndirect,
		cm.LoadImmAndJump, cm.LoadImmAndJumpIndirect,
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
