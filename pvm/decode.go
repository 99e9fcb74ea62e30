package pvm

// Operand decoding. Missing trailing bytes read as zero, register indices
// above the last register clamp to it.

func operand(args []byte, i int) byte {
	if i < len(args) {
		return args[i]
	}

	return 0
}

func reg(nibble byte) uint8 {
	return uint8(min(int(nibble), NumRegs-1))
}

// readImm reads n little endian bytes at off and sign extends the result.
func readImm(args []byte, off, n int) uint64 {
	if n == 0 {
		return 0
	}

	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(operand(args, off+i))
	}

	shift := uint(64 - 8*n)

	return uint64(int64(v<<shift) >> shift)
}

// immLen is the length of the trailing immediate once used bytes are taken.
func immLen(args []byte, used int) int {
	return min(4, max(0, len(args)-used))
}

func decodeInstruction(op Opcode, args []byte, pc uint32) instruction {
	ins := instruction{inst: op.Instruction(), pc: pc, target: -1}

	offset := func(off, n int) int32 {
		return int32(pc + uint32(readImm(args, off, n)))
	}

	switch op.Form() {
	case FormNoArgs:

	case FormOneImm:
		ins.imm1 = readImm(args, 0, min(4, len(args)))

	case FormRegExtImm:
		ins.a = reg(operand(args, 0) & 0x0f)

		for i := 8; i >= 1; i-- {
			ins.imm1 = ins.imm1<<8 | uint64(operand(args, i))
		}

	case FormTwoImm:
		lx := min(4, int(operand(args, 0)&7))
		ins.imm1 = readImm(args, 1, lx)
		ins.imm2 = readImm(args, 1+lx, immLen(args, 1+lx))

	case FormOneOffset:
		ins.target = offset(0, min(4, len(args)))

	case FormRegImm:
		ins.a = reg(operand(args, 0) & 0x0f)
		ins.imm1 = readImm(args, 1, immLen(args, 1))

	case FormRegTwoImm:
		b0 := operand(args, 0)
		lx := min(4, int(b0>>4&7))
		ins.a = reg(b0 & 0x0f)
		ins.imm1 = readImm(args, 1, lx)
		ins.imm2 = readImm(args, 1+lx, immLen(args, 1+lx))

	case FormRegImmOffset:
		b0 := operand(args, 0)
		lx := min(4, int(b0>>4&7))
		ins.a = reg(b0 & 0x0f)
		ins.imm1 = readImm(args, 1, lx)
		ins.target = offset(1+lx, immLen(args, 1+lx))

	case FormTwoRegs:
		b0 := operand(args, 0)
		ins.d = reg(b0 & 0x0f)
		ins.a = reg(b0 >> 4)

	case FormTwoRegsImm:
		b0 := operand(args, 0)
		ins.a = reg(b0 & 0x0f)
		ins.b = reg(b0 >> 4)
		ins.imm1 = readImm(args, 1, immLen(args, 1))

	case FormTwoRegsOffset:
		b0 := operand(args, 0)
		ins.a = reg(b0 & 0x0f)
		ins.b = reg(b0 >> 4)
		ins.target = offset(1, immLen(args, 1))

	case FormTwoRegsTwoImm:
		b0 := operand(args, 0)
		lx := min(4, int(operand(args, 1)&7))
		ins.a = reg(b0 & 0x0f)
		ins.b = reg(b0 >> 4)
		ins.imm1 = readImm(args, 2, lx)
		ins.imm2 = readImm(args, 2+lx, immLen(args, 2+lx))

	case FormThreeRegs:
		b0 := operand(args, 0)
		ins.a = reg(b0 & 0x0f)
		ins.b = reg(b0 >> 4)
		ins.d = reg(operand(args, 1))
	}

	return ins
}
