package pvm_test

import (
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/weiihann/gasbench/costmodel"
	"github.com/weiihann/gasbench/pvm"
)

const returnOne = `
.export main
main:
    load_imm a0, 1
    jump_indirect ra, 0
`

var _ = Describe("Instance", func() {
	Describe("control flow", func() {
		It("finishes when jumping to the return address", func() {
			inst := run(returnOne)

			Expect(inst.Reg(pvm.A0)).To(Equal(uint64(1)))

			_, ok := inst.ProgramCounter()
			Expect(ok).To(BeFalse())
		})

		It("refuses to run again after finishing", func() {
			inst := run(returnOne)

			_, err := inst.Run()
			Expect(err).To(MatchError(pvm.ErrHalted))
		})

		It("requires a program counter", func() {
			inst, err := compile(returnOne, nil, 0).Instantiate()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(inst.Close)

			_, err = inst.Run()
			Expect(err).To(MatchError(pvm.ErrNoProgramCounter))
		})

		It("traps on trap", func() {
			inst := start(compile(".export main\nmain:\n    trap\n", nil, 0))

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Trap))
		})

		It("traps when running off the end of the code", func() {
			inst := start(compile(".export main\nmain:\n    load_imm a0, 1\n", nil, 0))

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Trap))
		})

		It("stops on ecalli and resumes after it", func() {
			inst := start(compile(`
.export main
main:
    ecalli 7
    load_imm a0, 3
    jump_indirect ra, 0
`, nil, 0))

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr).To(Equal(pvm.Interrupt{Kind: pvm.Ecalli, HostCall: 7}))

			pc, ok := inst.ProgramCounter()
			Expect(ok).To(BeTrue())
			Expect(pc).To(Equal(uint32(2)))

			intr, err = inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Finished))
			Expect(inst.Reg(pvm.A0)).To(Equal(uint64(3)))
		})

		It("loops with branches", func() {
			inst := run(`
.export main
main:
    load_imm a0, 0
    load_imm a1, 10
loop:
    add_imm_64 a0, a0, 3
    add_imm_64 a1, a1, -1
    branch_not_eq_imm a1, 0, @loop
    jump_indirect ra, 0
`)

			Expect(inst.Reg(pvm.A0)).To(Equal(uint64(30)))
		})

		It("jumps through the jump table", func() {
			inst := run(`
.export main
main:
    load_imm t0, &target
    jump_indirect t0, 0
    trap
target:
    load_imm a0, 42
    jump_indirect ra, 0
`)

			Expect(inst.Reg(pvm.A0)).To(Equal(uint64(42)))
		})

		DescribeTable("traps on bad dynamic jump addresses",
			func(addr string) {
				inst := start(compile(fmt.Sprintf(`
.export main
.jump_table main
main:
    load_imm t0, %s
    jump_indirect t0, 0
`, addr), nil, 0))

				intr, err := inst.Run()
				Expect(err).NotTo(HaveOccurred())
				Expect(intr.Kind).To(Equal(pvm.Trap))
			},
			Entry("zero", "0"),
			Entry("odd", "3"),
			Entry("past the table", "4"),
		)

		It("calls and returns through load_imm_and_jump", func() {
			inst := run(`
.export main
main:
    move_reg s0, ra
    load_imm_and_jump ra, &back, @callee
back:
    add_imm_64 a0, a0, 1
    move_reg ra, s0
    jump_indirect ra, 0
callee:
    load_imm a0, 9
    jump_indirect ra, 0
`)

			Expect(inst.Reg(pvm.A0)).To(Equal(uint64(10)))
		})
	})

	Describe("gas", func() {
		It("charges each block up front", func() {
			inst := run(returnOne)

			Expect(inst.Gas()).To(Equal(int64(testGas - 2)))
		})

		It("uses the weights of the cost model", func() {
			weights := costmodel.Naive().Weights()
			weights["load_imm"] = 5
			weights["jump_indirect"] = 7

			model, err := costmodel.FromMap(weights)
			Expect(err).NotTo(HaveOccurred())

			mod := compile(returnOne, model, 0)
			cost, ok := mod.BlockCost(0)
			Expect(ok).To(BeTrue())
			Expect(cost).To(Equal(int64(12)))

			inst := start(mod)
			_, err = inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Gas()).To(Equal(int64(testGas - 12)))
		})

		It("leaves gas untouched when a block cannot be paid for", func() {
			inst := start(compile(returnOne, nil, 0))
			inst.SetGas(1)

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.NotEnoughGas))
			Expect(inst.Gas()).To(Equal(int64(1)))

			inst.SetGas(5)

			intr, err = inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Finished))
			Expect(inst.Gas()).To(Equal(int64(3)))
		})

		It("charges memset per byte", func() {
			inst := run(`
.export main
.stack 4096
main:
    add_imm_64 a0, sp, -64
    load_imm a1, 0xab
    load_imm a2, 16
    memset
    jump_indirect ra, 0
`)

			Expect(inst.Gas()).To(Equal(int64(testGas - 5 - 16)))
			Expect(inst.Reg(pvm.A2)).To(BeZero())

			sp := uint64(inst.Reg(pvm.SP))
			Expect(inst.Reg(pvm.A0)).To(Equal(sp - 48))

			data, err := inst.ReadMemory(uint32(sp-64), 16)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveEach(byte(0xab)))
		})

		It("does not charge a block twice when memset runs out of gas", func() {
			inst := start(compile(`
.export main
.stack 4096
main:
    memset
    jump_indirect ra, 0
`, nil, 0))
			inst.SetReg(pvm.A0, uint64(inst.Reg(pvm.SP))-32)
			inst.SetReg(pvm.A2, 32)
			inst.SetGas(10)

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.NotEnoughGas))
			Expect(inst.Gas()).To(Equal(int64(8)))

			inst.SetGas(40)

			intr, err = inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Finished))
			Expect(inst.Gas()).To(Equal(int64(8)))
		})
	})

	Describe("memory", func() {
		It("reads read-only data and refuses writes to it", func() {
			mod := compile(`
.export main
.ro_data 01020304
main:
    load_imm a1, 0x10000
    load_indirect_u32 a0, a1, 0
    store_indirect_u32 a0, a1, 0
    jump_indirect ra, 0
`, nil, 0)
			inst := start(mod)

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr).To(Equal(pvm.Interrupt{Kind: pvm.Segfault, PageAddress: 0x10000}))
			Expect(inst.Reg(pvm.A0)).To(Equal(uint64(0x04030201)))
		})

		It("faults on unmapped addresses", func() {
			inst := start(compile(".export main\nmain:\n    load_u32 a0, 0x20\n    trap\n", nil, 0))

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr).To(Equal(pvm.Interrupt{Kind: pvm.Segfault, PageAddress: 0}))
		})

		It("grows the heap with sbrk", func() {
			mod := compile(`
.export main
.heap 0x2000
main:
    load_imm a1, 0x1000
    sbrk a0, a1
    sbrk a2, a1
    sbrk a3, a1
    store_indirect_u32 a1, a0, 0
    jump_indirect ra, 0
`, nil, 0)
			inst := start(mod)

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Finished))

			base := uint64(mod.MemoryMap().HeapBase)
			Expect(inst.Reg(pvm.A0)).To(Equal(base))
			Expect(inst.Reg(pvm.A2)).To(Equal(base + 0x1000))
			Expect(inst.Reg(pvm.A3)).To(BeZero())
		})

		It("lets the host write the aux region but not the guest", func() {
			mod := compile(`
.export main
main:
    load_indirect_u8 a2, a0, 2
    store_indirect_u8 a2, a0, 0
    trap
`, nil, 3)
			inst := start(mod)

			addr := mod.MemoryMap().AuxDataAddress
			Expect(inst.WriteMemory(addr, []byte{1, 2, 3})).To(Succeed())
			Expect(inst.WriteMemory(addr, []byte{1, 2, 3, 4})).To(MatchError(pvm.ErrOutOfBounds))
			inst.SetReg(pvm.A0, uint64(addr))

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Segfault))
			Expect(inst.Reg(pvm.A2)).To(Equal(uint64(3)))
		})

		It("rejects use after close", func() {
			inst, err := compile(returnOne, nil, 0).Instantiate()
			Expect(err).NotTo(HaveOccurred())

			Expect(inst.Close()).To(Succeed())
			Expect(inst.Close()).To(Succeed())
			Expect(inst.WriteMemory(0, []byte{1})).To(MatchError(pvm.ErrClosed))

			_, err = inst.Run()
			Expect(err).To(MatchError(pvm.ErrClosed))
		})
	})

	DescribeTable("three register arithmetic",
		func(op string, x, y, want uint64) {
			inst := start(compile(fmt.Sprintf(`
.export main
main:
    %s a0, a1, a2
    jump_indirect ra, 0
`, op), nil, 0))
			inst.SetReg(pvm.A1, x)
			inst.SetReg(pvm.A2, y)

			intr, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(intr.Kind).To(Equal(pvm.Finished))
			Expect(inst.Reg(pvm.A0)).To(Equal(want))
		},
		Entry(nil, "add_32", uint64(0xffffffff), uint64(1), uint64(0)),
		Entry(nil, "add_32", uint64(0x7fffffff), uint64(1), uint64(0xffffffff80000000)),
		Entry(nil, "sub_64", uint64(0), uint64(1), uint64(math.MaxUint64)),
		Entry(nil, "mul_upper_unsigned_unsigned", uint64(math.MaxUint64), uint64(2), uint64(1)),
		Entry(nil, "mul_upper_signed_signed", uint64(math.MaxUint64), uint64(math.MaxUint64), uint64(0)),
		Entry(nil, "div_unsigned_64", uint64(7), uint64(0), uint64(math.MaxUint64)),
		Entry(nil, "rem_unsigned_64", uint64(7), uint64(0), uint64(7)),
		Entry(nil, "div_signed_64", uint64(1<<63), uint64(math.MaxUint64), uint64(1<<63)),
		Entry(nil, "rem_signed_64", uint64(1<<63), uint64(math.MaxUint64), uint64(0)),
		Entry(nil, "div_signed_32", uint64(0xfffffff9), uint64(2), uint64(0xfffffffffffffffd)),
		Entry(nil, "rem_signed_32", uint64(0xfffffff9), uint64(2), uint64(math.MaxUint64)),
		Entry(nil, "shift_logical_left_32", uint64(1), uint64(33), uint64(2)),
		Entry(nil, "shift_arithmetic_right_64", uint64(1<<63), uint64(63), uint64(math.MaxUint64)),
		Entry(nil, "rotate_left_32", uint64(0x80000000), uint64(1), uint64(1)),
		Entry(nil, "rotate_right_64", uint64(1), uint64(1), uint64(1<<63)),
		Entry(nil, "set_less_than_signed", uint64(math.MaxUint64), uint64(0), uint64(1)),
		Entry(nil, "set_less_than_unsigned", uint64(math.MaxUint64), uint64(0), uint64(0)),
		Entry(nil, "and_inverted", uint64(0b1100), uint64(0b1010), uint64(0b0100)),
		Entry(nil, "xnor", uint64(0), uint64(0), uint64(math.MaxUint64)),
		Entry(nil, "maximum", uint64(math.MaxUint64), uint64(1), uint64(1)),
		Entry(nil, "minimum_unsigned", uint64(math.MaxUint64), uint64(1), uint64(1)),
	)

	DescribeTable("two register instructions",
		func(op string, x, want uint64) {
			inst := start(compile(fmt.Sprintf(`
.export main
main:
    %s a0, a1
    jump_indirect ra, 0
`, op), nil, 0))
			inst.SetReg(pvm.A1, x)

			_, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Reg(pvm.A0)).To(Equal(want))
		},
		Entry(nil, "reverse_byte", uint64(0x0102030405060708), uint64(0x0807060504030201)),
		Entry(nil, "count_leading_zero_bits_32", uint64(1), uint64(31)),
		Entry(nil, "count_set_bits_64", uint64(0xff00ff), uint64(16)),
		Entry(nil, "sign_extend_8", uint64(0x80), uint64(0xffffffffffffff80)),
		Entry(nil, "zero_extend_16", uint64(0xffffffff), uint64(0xffff)),
	)

	DescribeTable("register and immediate arithmetic",
		func(op string, x uint64, imm string, want uint64) {
			inst := start(compile(fmt.Sprintf(`
.export main
main:
    %s a0, a1, %s
    jump_indirect ra, 0
`, op, imm), nil, 0))
			inst.SetReg(pvm.A1, x)

			_, err := inst.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Reg(pvm.A0)).To(Equal(want))
		},
		Entry(nil, "add_imm_64", uint64(10), "-3", uint64(7)),
		Entry(nil, "add_imm_32", uint64(0xffffffff), "1", uint64(0)),
		Entry(nil, "xor_imm", uint64(0), "0xffffffff", uint64(math.MaxUint64)),
		Entry(nil, "negate_and_add_imm_64", uint64(3), "10", uint64(7)),
		Entry(nil, "shift_logical_left_imm_alt_64", uint64(4), "1", uint64(16)),
		Entry(nil, "rotate_right_imm_32", uint64(1), "1", uint64(0xffffffff80000000)),
		Entry(nil, "set_greater_than_unsigned_imm", uint64(5), "4", uint64(1)),
	)
})
