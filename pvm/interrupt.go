package pvm

import "fmt"

// InterruptKind tells why Run returned control to the host.
type InterruptKind uint8

const (
	// Finished means the guest jumped to ReturnToHost.
	Finished InterruptKind = iota
	// Trap means the guest executed trap, an invalid instruction, or an
	// invalid jump.
	Trap
	// Ecalli means the guest requested a host call. The program counter
	// already points past the instruction.
	Ecalli
	// NotEnoughGas means the next basic block could not be paid for.
	NotEnoughGas
	// Segfault means the guest touched inaccessible memory.
	Segfault
)

func (k InterruptKind) String() string {
	switch k {
	case Finished:
		return "Finished"
	case Trap:
		return "Trap"
	case Ecalli:
		return "Ecalli"
	case NotEnoughGas:
		return "NotEnoughGas"
	case Segfault:
		return "Segfault"
	default:
		return fmt.Sprintf("InterruptKind(%d)", uint8(k))
	}
}

// Interrupt is the outcome of a call to Instance.Run.
type Interrupt struct {
	Kind InterruptKind
	// HostCall is the ecalli immediate when Kind is Ecalli.
	HostCall uint32
	// PageAddress is the faulting page when Kind is Segfault.
	PageAddress uint32
}

func (i Interrupt) String() string {
	switch i.Kind {
	case Ecalli:
		return fmt.Sprintf("Ecalli(%d)", i.HostCall)
	case Segfault:
		return fmt.Sprintf("Segfault(page=0x%x)", i.PageAddress)
	default:
		return i.Kind.String()
	}
}
