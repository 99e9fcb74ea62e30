package pvm

import "fmt"

// Reg names one of the machine's general purpose registers.
type Reg uint8

// Registers in encoding order.
const (
	RA Reg = iota
	SP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5

	// NumRegs is the size of the register file.
	NumRegs = int(iota)
)

var regNames = [NumRegs]string{
	"ra", "sp", "t0", "t1", "t2", "s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5",
}

func (r Reg) String() string {
	if int(r) < NumRegs {
		return regNames[r]
	}

	return fmt.Sprintf("r%d", uint8(r))
}

// ParseReg accepts both ABI names (a0) and raw indices (r7).
func ParseReg(s string) (Reg, bool) {
	for i, name := range regNames {
		if s == name {
			return Reg(i), true
		}
	}

	var n int
	if _, err := fmt.Sscanf(s, "r%d", &n); err == nil && n >= 0 && n < NumRegs &&
		s == fmt.Sprintf("r%d", n) {
		return Reg(n), true
	}

	return 0, false
}
