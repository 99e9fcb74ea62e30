package harness

import (
	"errors"
	"fmt"

	"github.com/weiihann/gasbench/pvm"
)

// DefaultGasBudget is large enough that no legitimate run exhausts it.
const DefaultGasBudget int64 = 1_000_000_000_000_000

// Outcome is what a single run produces.
type Outcome struct {
	Value   uint64
	GasUsed int64
}

// FatalInterruptError reports a run that stopped for any reason other than
// finishing.
type FatalInterruptError struct {
	Interrupt pvm.Interrupt
}

func (e *FatalInterruptError) Error() string {
	return fmt.Sprintf("unexpected interrupt: %s", e.Interrupt)
}

// RunOnce instantiates p, runs it over aux to completion and releases the
// instance. The guest receives the aux address in A0 and its length in A1.
func RunOnce(p Program, aux []byte, gasBudget int64) (out Outcome, err error) {
	if gasBudget <= 0 {
		return out, errors.New("gas budget must be positive")
	}

	inst, err := p.Instantiate()
	if err != nil {
		return out, fmt.Errorf("instantiate: %w", err)
	}

	defer func() {
		if cerr := inst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("release instance: %w", cerr)
		}
	}()

	auxAddr := p.AuxDataAddress()

	inst.SetNextProgramCounter(p.EntryPoint())
	inst.SetReg(pvm.RA, uint64(pvm.ReturnToHost))
	inst.SetReg(pvm.SP, uint64(p.DefaultSP()))

	if err := inst.WriteMemory(auxAddr, aux); err != nil {
		return out, fmt.Errorf("write aux data: %w", err)
	}

	inst.SetReg(pvm.A0, uint64(auxAddr))
	inst.SetReg(pvm.A1, uint64(len(aux)))
	inst.SetGas(gasBudget)

	intr, err := inst.Run()
	if err != nil {
		return out, fmt.Errorf("run: %w", err)
	}

	if intr.Kind != pvm.Finished {
		return out, &FatalInterruptError{Interrupt: intr}
	}

	out.Value = inst.Reg(pvm.A0)
	out.GasUsed = gasBudget - inst.Gas()

	return out, nil
}
