package costmodel

import "fmt"

// Instruction identifies one entry of a cost model. The set is closed and
// ordered; every Model carries exactly one weight per Instruction.
type Instruction uint8

// Instructions in canonical (sorted by name) order.
const (
	Add32 Instruction = iota
	Add64
	AddImm32
	AddImm64
	And
	AndImm
	AndInverted
	BranchEq
	BranchEqImm
	BranchGreaterOrEqualSigned
	BranchGreaterOrEqualSignedImm
	BranchGreaterOrEqualUnsigned
	BranchGreaterOrEqualUnsignedImm
	BranchGreaterSignedImm
	BranchGreaterUnsignedImm
	BranchLessOrEqualSignedImm
	BranchLessOrEqualUnsignedImm
	BranchLessSigned
	BranchLessSignedImm
	BranchLessUnsigned
	BranchLessUnsignedImm
	BranchNotEq
	BranchNotEqImm
	CmovIfNotZero
	CmovIfNotZeroImm
	CmovIfZero
	CmovIfZeroImm
	CountLeadingZeroBits32
	CountLeadingZeroBits64
	CountSetBits32
	CountSetBits64
	CountTrailingZeroBits32
	CountTrailingZeroBits64
	DivSigned32
	DivSigned64
	DivUnsigned32
	DivUnsigned64
	Ecalli
	Fallthrough
	Invalid
	Jump
	JumpIndirect
	LoadI16
	LoadI32
	LoadI8
	LoadImm
	LoadImm64
	LoadImmAndJump
	LoadImmAndJumpIndirect
	LoadIndirectI16
	LoadIndirectI32
	LoadIndirectI8
	LoadIndirectU16
	LoadIndirectU32
	LoadIndirectU64
	LoadIndirectU8
	LoadU16
	LoadU32
	LoadU64
	LoadU8
	Maximum
	MaximumUnsigned
	Memset
	Minimum
	MinimumUnsigned
	MoveReg
	Mul32
	Mul64
	MulImm32
	MulImm64
	MulUpperSignedSigned
	MulUpperSignedUnsigned
	MulUpperUnsignedUnsigned
	NegateAndAddImm32
	NegateAndAddImm64
	Or
	OrImm
	OrInverted
	RemSigned32
	RemSigned64
	RemUnsigned32
	RemUnsigned64
	ReverseByte
	RotateLeft32
	RotateLeft64
	RotateRight32
	RotateRight64
	RotateRightImm32
	RotateRightImm64
	RotateRightImmAlt32
	RotateRightImmAlt64
	Sbrk
	SetGreaterThanSignedImm
	SetGreaterThanUnsignedImm
	SetLessThanSigned
	SetLessThanSignedImm
	SetLessThanUnsigned
	SetLessThanUnsignedImm
	ShiftArithmeticRight32
	ShiftArithmeticRight64
	ShiftArithmeticRightImm32
	ShiftArithmeticRightImm64
	ShiftArithmeticRightImmAlt32
	ShiftArithmeticRightImmAlt64
	ShiftLogicalLeft32
	ShiftLogicalLeft64
	ShiftLogicalLeftImm32
	ShiftLogicalLeftImm64
	ShiftLogicalLeftImmAlt32
	ShiftLogicalLeftImmAlt64
	ShiftLogicalRight32
	ShiftLogicalRight64
	ShiftLogicalRightImm32
	ShiftLogicalRightImm64
	ShiftLogicalRightImmAlt32
	ShiftLogicalRightImmAlt64
	SignExtend16
	SignExtend8
	StoreImmIndirectU16
	StoreImmIndirectU32
	StoreImmIndirectU64
	StoreImmIndirectU8
	StoreImmU16
	StoreImmU32
	StoreImmU64
	StoreImmU8
	StoreIndirectU16
	StoreIndirectU32
	StoreIndirectU64
	StoreIndirectU8
	StoreU16
	StoreU32
	StoreU64
	StoreU8
	Sub32
	Sub64
	Trap
	Xnor
	Xor
	XorImm
	ZeroExtend16
	// NumInstructions is the size of the instruction set.
	NumInstructions = int(iota)
)

var instructionNames = [NumInstructions]string{
	Add32:                           "add_32",
	Add64:                           "add_64",
	AddImm32:                        "add_imm_32",
	AddImm64:                        "add_imm_64",
	And:                             "and",
	AndImm:                          "and_imm",
	AndInverted:                     "and_inverted",
	BranchEq:                        "branch_eq",
	BranchEqImm:                     "branch_eq_imm",
	BranchGreaterOrEqualSigned:      "branch_greater_or_equal_signed",
	BranchGreaterOrEqualSignedImm:   "branch_greater_or_equal_signed_imm",
	BranchGreaterOrEqualUnsigned:    "branch_greater_or_equal_unsigned",
	BranchGreaterOrEqualUnsignedImm: "branch_greater_or_equal_unsigned_imm",
	BranchGreaterSignedImm:          "branch_greater_signed_imm",
	BranchGreaterUnsignedImm:        "branch_greater_unsigned_imm",
	BranchLessOrEqualSignedImm:      "branch_less_or_equal_signed_imm",
	BranchLessOrEqualUnsignedImm:    "branch_less_or_equal_unsigned_imm",
	BranchLessSigned:                "branch_less_signed",
	BranchLessSignedImm:             "branch_less_signed_imm",
	BranchLessUnsigned:              "branch_less_unsigned",
	BranchLessUnsignedImm:           "branch_less_unsigned_imm",
	BranchNotEq:                     "branch_not_eq",
	BranchNotEqImm:                  "branch_not_eq_imm",
	CmovIfNotZero:                   "cmov_if_not_zero",
	CmovIfNotZeroImm:                "cmov_if_not_zero_imm",
	CmovIfZero:                      "cmov_if_zero",
	CmovIfZeroImm:                   "cmov_if_zero_imm",
	CountLeadingZeroBits32:          "count_leading_zero_bits_32",
	CountLeadingZeroBits64:          "count_leading_zero_bits_64",
	CountSetBits32:                  "count_set_bits_32",
	CountSetBits64:                  "count_set_bits_64",
	CountTrailingZeroBits32:         "count_trailing_zero_bits_32",
	CountTrailingZeroBits64:         "count_trailing_zero_bits_64",
	DivSigned32:                     "div_signed_32",
	DivSigned64:                     "div_signed_64",
	DivUnsigned32:                   "div_unsigned_32",
	DivUnsigned64:                   "div_unsigned_64",
	Ecalli:                          "ecalli",
	Fallthrough:                     "fallthrough",
	Invalid:                         "invalid",
	Jump:                            "jump",
	JumpIndirect:                    "jump_indirect",
	LoadI16:                         "load_i16",
	LoadI32:                         "load_i32",
	LoadI8:                          "load_i8",
	LoadImm:                         "load_imm",
	LoadImm64:                       "load_imm64",
	LoadImmAndJump:                  "load_imm_and_jump",
	LoadImmAndJumpIndirect:          "load_imm_and_jump_indirect",
	LoadIndirectI16:                 "load_indirect_i16",
	LoadIndirectI32:                 "load_indirect_i32",
	LoadIndirectI8:                  "load_indirect_i8",
	LoadIndirectU16:                 "load_indirect_u16",
	LoadIndirectU32:                 "load_indirect_u32",
	LoadIndirectU64:                 "load_indirect_u64",
	LoadIndirectU8:                  "load_indirect_u8",
	LoadU16:                         "load_u16",
	LoadU32:                         "load_u32",
	LoadU64:                         "load_u64",
	LoadU8:                          "load_u8",
	Maximum:                         "maximum",
	MaximumUnsigned:                 "maximum_unsigned",
	Memset:                          "memset",
	Minimum:                         "minimum",
	MinimumUnsigned:                 "minimum_unsigned",
	MoveReg:                         "move_reg",
	Mul32:                           "mul_32",
	Mul64:                           "mul_64",
	MulImm32:                        "mul_imm_32",
	MulImm64:                        "mul_imm_64",
	MulUpperSignedSigned:            "mul_upper_signed_signed",
	MulUpperSignedUnsigned:          "mul_upper_signed_unsigned",
	MulUpperUnsignedUnsigned:        "mul_upper_unsigned_unsigned",
	NegateAndAddImm32:               "negate_and_add_imm_32",
	NegateAndAddImm64:               "negate_and_add_imm_64",
	Or:                              "or",
	OrImm:                           "or_imm",
	OrInverted:                      "or_inverted",
	RemSigned32:                     "rem_signed_32",
	RemSigned64:                     "rem_signed_64",
	RemUnsigned32:                   "rem_unsigned_32",
	RemUnsigned64:                   "rem_unsigned_64",
	ReverseByte:                     "reverse_byte",
	RotateLeft32:                    "rotate_left_32",
	RotateLeft64:                    "rotate_left_64",
	RotateRight32:                   "rotate_right_32",
	RotateRight64:                   "rotate_right_64",
	RotateRightImm32:                "rotate_right_imm_32",
	RotateRightImm64:                "rotate_right_imm_64",
	RotateRightImmAlt32:             "rotate_right_imm_alt_32",
	RotateRightImmAlt64:             "rotate_right_imm_alt_64",
	Sbrk:                            "sbrk",
	SetGreaterThanSignedImm:         "set_greater_than_signed_imm",
	SetGreaterThanUnsignedImm:       "set_greater_than_unsigned_imm",
	SetLessThanSigned:               "set_less_than_signed",
	SetLessThanSignedImm:            "set_less_than_signed_imm",
	SetLessThanUnsigned:             "set_less_than_unsigned",
	SetLessThanUnsignedImm:          "set_less_than_unsigned_imm",
	ShiftArithmeticRight32:          "shift_arithmetic_right_32",
	ShiftArithmeticRight64:          "shift_arithmetic_right_64",
	ShiftArithmeticRightImm32:       "shift_arithmetic_right_imm_32",
	ShiftArithmeticRightImm64:       "shift_arithmetic_right_imm_64",
	ShiftArithmeticRightImmAlt32:    "shift_arithmetic_right_imm_alt_32",
	ShiftArithmeticRightImmAlt64:    "shift_arithmetic_right_imm_alt_64",
	ShiftLogicalLeft32:              "shift_logical_left_32",
	ShiftLogicalLeft64:              "shift_logical_left_64",
	ShiftLogicalLeftImm32:           "shift_logical_left_imm_32",
	ShiftLogicalLeftImm64:           "shift_logical_left_imm_64",
	ShiftLogicalLeftImmAlt32:        "shift_logical_left_imm_alt_32",
	ShiftLogicalLeftImmAlt64:        "shift_logical_left_imm_alt_64",
	ShiftLogicalRight32:             "shift_logical_right_32",
	ShiftLogicalRight64:             "shift_logical_right_64",
	ShiftLogicalRightImm32:          "shift_logical_right_imm_32",
	ShiftLogicalRightImm64:          "shift_logical_right_imm_64",
	ShiftLogicalRightImmAlt32:       "shift_logical_right_imm_alt_32",
	ShiftLogicalRightImmAlt64:       "shift_logical_right_imm_alt_64",
	SignExtend16:                    "sign_extend_16",
	SignExtend8:                     "sign_extend_8",
	StoreImmIndirectU16:             "store_imm_indirect_u16",
	StoreImmIndirectU32:             "store_imm_indirect_u32",
	StoreImmIndirectU64:             "store_imm_indirect_u64",
	StoreImmIndirectU8:              "store_imm_indirect_u8",
	StoreImmU16:                     "store_imm_u16",
	StoreImmU32:                     "store_imm_u32",
	StoreImmU64:                     "store_imm_u64",
	StoreImmU8:                      "store_imm_u8",
	StoreIndirectU16:                "store_indirect_u16",
	StoreIndirectU32:                "store_indirect_u32",
	StoreIndirectU64:                "store_indirect_u64",
	StoreIndirectU8:                 "store_indirect_u8",
	StoreU16:                        "store_u16",
	StoreU32:                        "store_u32",
	StoreU64:                        "store_u64",
	StoreU8:                         "store_u8",
	Sub32:                           "sub_32",
	Sub64:                           "sub_64",
	Trap:                            "trap",
	Xnor:                            "xnor",
	Xor:                             "xor",
	XorImm:                          "xor_imm",
	ZeroExtend16:                    "zero_extend_16",
}

var instructionsByName = func() map[string]Instruction {
	m := make(map[string]Instruction, NumInstructions)
	for i, name := range instructionNames {
		m[name] = Instruction(i)
	}

	return m
}()

// String returns the canonical name used in cost model documents.
func (i Instruction) String() string {
	if int(i) < NumInstructions {
		return instructionNames[i]
	}

	return fmt.Sprintf("Instruction(%d)", uint8(i))
}

// Valid reports whether i belongs to the instruction set.
func (i Instruction) Valid() bool {
	return int(i) < NumInstructions
}

// Lookup resolves a canonical instruction name.
func Lookup(name string) (Instruction, bool) {
	i, ok := instructionsByName[name]

	return i, ok
}

// Instructions returns every instruction in canonical order.
func Instructions() []Instruction {
	out := make([]Instruction, NumInstructions)
	for i := range out {
		out[i] = Instruction(i)
	}

	return out
}
