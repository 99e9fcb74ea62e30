package harness

import (
	"fmt"

	"github.com/weiihann/gasbench/costmodel"
	"github.com/weiihann/gasbench/pvm"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_harness_test.go github.com/weiihann/gasbench/harness Program,Instance

// EntryExport is the export every benchmark guest provides.
const EntryExport = "run"

// Instance is one fresh execution of a Program.
type Instance interface {
	SetNextProgramCounter(pc uint32)
	SetReg(r pvm.Reg, v uint64)
	Reg(r pvm.Reg) uint64
	SetGas(gas int64)
	Gas() int64
	WriteMemory(addr uint32, data []byte) error
	Run() (pvm.Interrupt, error)
	Close() error
}

// Program is a guest compiled against one cost model.
type Program interface {
	Instantiate() (Instance, error)
	EntryPoint() uint32
	DefaultSP() uint32
	AuxDataAddress() uint32
}

type compiled struct {
	module *pvm.Module
	entry  uint32
}

// Compile builds an engine for model and compiles blob with synchronous gas
// metering and an aux region of exactly auxSize bytes.
func Compile(
	model *costmodel.Model,
	cfg pvm.Config,
	blob *pvm.ProgramBlob,
	auxSize uint32,
	export string,
) (Program, error) {
	cfg.CostModel = model
	cfg.AllowExperimental = true

	engine, err := pvm.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	module, err := pvm.NewModule(engine, pvm.ModuleConfig{
		GasMetering: pvm.GasMeteringSync,
		AuxDataSize: auxSize,
	}, blob)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}

	entry, ok := module.ExportPC(export)
	if !ok {
		return nil, fmt.Errorf("program has no %q export", export)
	}

	return &compiled{module: module, entry: entry}, nil
}

func (c *compiled) Instantiate() (Instance, error) {
	inst, err := c.module.Instantiate()
	if err != nil {
		return nil, err
	}

	return inst, nil
}

func (c *compiled) EntryPoint() uint32 {
	return c.entry
}

func (c *compiled) DefaultSP() uint32 {
	return c.module.DefaultSP()
}

func (c *compiled) AuxDataAddress() uint32 {
	return c.module.MemoryMap().AuxDataAddress
}
