package pvm_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weiihann/gasbench/asm"
	cm "github.com/weiihann/gasbench/costmodel"
	"github.com/weiihann/gasbench/pvm"
)

var _ = Describe("ProgramBlob", func() {
	var blob *pvm.ProgramBlob

	BeforeEach(func() {
		var err error
		blob, err = asm.Assemble(`
.export main
.stack 4096
.heap 8192
.ro_data cafe
.rw_data 0102
main:
    load_imm t0, &done
    jump_indirect t0, 0
done:
    jump_indirect ra, 0
`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("round trips through the binary encoding", func() {
		raw, err := blob.MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		parsed, err := pvm.ParseBlob(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(blob))
	})

	It("skips custom sections", func() {
		raw, err := blob.MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		end := len(raw) - 1
		withCustom := append(append([]byte{}, raw[:end]...), 0x80, 2, 'h', 'i', 0)

		parsed, err := pvm.ParseBlob(withCustom)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Code).To(Equal(blob.Code))
	})

	DescribeTable("rejects malformed blobs",
		func(mutate func([]byte) []byte) {
			raw, err := blob.MarshalBinary()
			Expect(err).NotTo(HaveOccurred())

			_, err = pvm.ParseBlob(mutate(raw))

			var perr *pvm.ParseError
			Expect(err).To(BeAssignableToTypeOf(perr))
		},
		Entry("bad magic", func(b []byte) []byte { b[0] = 'X'; return b }),
		Entry("bad version", func(b []byte) []byte { b[4] = 9; return b }),
		Entry("truncated", func(b []byte) []byte { return b[:len(b)-3] }),
		Entry("trailing data", func(b []byte) []byte { return append(b, 0) }),
		Entry("no code section", func(b []byte) []byte {
			return append(append([]byte{}, pvm.BlobMagic[:]...), pvm.BlobVersion, 0)
		}),
	)

	It("exposes exports and the jump table", func() {
		e, ok := blob.Export("main")
		Expect(ok).To(BeTrue())
		Expect(e.PC).To(BeZero())

		Expect(blob.JumpTable).To(HaveLen(1))
		Expect(blob.IsInstructionStart(blob.JumpTable[0])).To(BeTrue())
		Expect(blob.ROSize).To(Equal(uint32(2)))
		Expect(blob.RWData).To(Equal([]byte{1, 2}))
	})

	It("assembles the SHA-1 guest", func() {
		src, err := os.ReadFile("../guests/sha1/sha1.s")
		Expect(err).NotTo(HaveOccurred())

		sha, err := asm.Assemble(string(src))
		Expect(err).NotTo(HaveOccurred())

		_, ok := sha.Export("run")
		Expect(ok).To(BeTrue())
	})
})

var _ = Describe("Module", func() {
	It("lays out the address space", func() {
		mod := compile(`
.export main
.stack 0x2000
.ro_data 00
main:
    trap
`, nil, 100)
		mm := mod.MemoryMap()

		Expect(mm.ROAddress).To(Equal(uint32(0x10000)))
		Expect(mm.RWAddress).To(Equal(uint32(0x30000)))
		Expect(mm.AuxDataAddress).To(Equal(pvm.ReturnToHost - 0x20000))
		Expect(mm.AuxDataSize).To(Equal(uint32(100)))
		Expect(mm.StackAddressHigh).To(Equal(mm.AuxDataAddress - 0x10000))
		Expect(mm.StackAddressHigh - mm.StackAddressLow).To(Equal(uint32(0x2000)))
		Expect(mod.DefaultSP()).To(Equal(mm.StackAddressHigh))
	})

	It("rejects exports that do not start a basic block", func() {
		blob, err := asm.Assemble(`
main:
    load_imm a0, 1
    jump_indirect ra, 0
`)
		Expect(err).NotTo(HaveOccurred())
		blob.Exports = []pvm.Export{{Name: "mid", PC: 3}}

		engine, err := pvm.NewEngine(pvm.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		_, err = pvm.NewModule(engine, pvm.ModuleConfig{}, blob)
		Expect(err).To(MatchError(ContainSubstring("not the start of a basic block")))
	})
})

var _ = Describe("Opcodes", func() {
	It("encodes every instruction but invalid", func() {
		for _, inst := range cm.Instructions() {
			op, ok := pvm.OpcodeOf(inst)
			if inst == cm.Invalid {
				Expect(ok).To(BeFalse())

				continue
			}

			Expect(ok).To(BeTrue(), inst.String())
			Expect(op.Instruction()).To(Equal(inst))
		}
	})

	It("decodes unknown opcodes as invalid", func() {
		Expect(pvm.Opcode(255).Known()).To(BeFalse())
		Expect(pvm.Opcode(255).Instruction()).To(Equal(cm.Invalid))
	})

	It("parses register names", func() {
		r, ok := pvm.ParseReg("a0")
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(pvm.A0))

		r, ok = pvm.ParseReg("r12")
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(pvm.A5))

		_, ok = pvm.ParseReg("r13")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Engine", func() {
	It("defaults to the naive model", func() {
		engine, err := pvm.NewEngine(pvm.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.CostModel().Equal(cm.Naive())).To(BeTrue())
	})

	It("requires opting in to custom cost models", func() {
		_, err := pvm.NewEngine(pvm.Config{CostModel: cm.Naive()})
		Expect(err).To(MatchError(ContainSubstring("experimental")))
	})

	It("rejects unknown backends", func() {
		_, err := pvm.NewEngine(pvm.Config{Backend: "compiler"})
		Expect(err).To(MatchError(ContainSubstring("unsupported backend")))
	})

	Describe("ConfigFromEnv", func() {
		setenv := func(key, value string) {
			prev, had := os.LookupEnv(key)
			Expect(os.Setenv(key, value)).To(Succeed())
			DeferCleanup(func() {
				if had {
					os.Setenv(key, prev)
				} else {
					os.Unsetenv(key)
				}
			})
		}

		It("reads the engine options", func() {
			setenv(pvm.EnvAllowExperimental, "true")
			setenv(pvm.EnvTraceExecution, "1")
			setenv(pvm.EnvBackend, "interpreter")

			cfg, err := pvm.ConfigFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AllowExperimental).To(BeTrue())
			Expect(cfg.TraceExecution).To(BeTrue())
			Expect(cfg.Backend).To(Equal(pvm.BackendInterpreter))
		})

		It("rejects values that are not booleans", func() {
			setenv(pvm.EnvAllowExperimental, "sometimes")

			_, err := pvm.ConfigFromEnv()
			Expect(err).To(MatchError(ContainSubstring(pvm.EnvAllowExperimental)))
		})
	})
})
