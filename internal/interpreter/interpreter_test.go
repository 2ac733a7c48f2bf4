package interpreter_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tetratelabs/amdil/internal/il"
	"github.com/tetratelabs/amdil/internal/interpreter"
)

func mustParse(src string) *il.Function {
	m, err := il.ParseModule(src)
	Expect(err).NotTo(HaveOccurred())
	Expect(m.Functions).To(HaveLen(1))
	return m.Functions[0]
}

func scalar(v uint32) interpreter.Value { return interpreter.Value{v} }

func run(src string, mem *interpreter.Memory, args ...interpreter.Value) []interpreter.Value {
	ret, err := interpreter.Run(mustParse(src), args, mem)
	Expect(err).NotTo(HaveOccurred())
	return ret
}

var _ = Describe("Machine", func() {
	Context("integer lanes", func() {
		It("broadcasts scalar sources against vectors", func() {
			ret := run(`
kernel k
  arg %0:v4i32, #0
  arg %1:i32, #1
  iadd %2:v4i32, %0, %1
  ret %2
end`, nil, interpreter.Value{1, 2, 3, 4}, scalar(10))
			Expect(ret[0]).To(Equal(interpreter.Value{11, 12, 13, 14}))
		})

		It("masks shift counts to five bits", func() {
			ret := run(`
kernel k
  arg %0:i32, #0
  ishl %1:i32, %0, #33
  ret %1
end`, nil, scalar(3))
			Expect(ret[0][0]).To(Equal(uint32(6)))
		})

		It("returns all ones for unsigned division by zero", func() {
			ret := run(`
kernel k
  arg %0:i32, #0
  udiv %1:i32, %0, #0
  ret %1
end`, nil, scalar(7))
			Expect(ret[0][0]).To(Equal(uint32(0xffffffff)))
		})

		It("counts leading zeros with ffb_hi", func() {
			src := `
kernel k
  arg %0:v2i32, #0
  ffb_hi %1:v2i32, %0
  ret %1
end`
			Expect(run(src, nil, interpreter.Value{1, 0})[0]).To(Equal(interpreter.Value{31, 0xffffffff}))
		})

		It("multiplies the sign extended low 24 bits with imul24", func() {
			ret := run(`
kernel k
  arg %0:v2i32, #0
  arg %1:v2i32, #1
  imul24 %2:v2i32, %0, %1
  ret %2
end`, nil, interpreter.Value{0xab000003, 0x00ffffff}, interpreter.Value{5, 0xff000002})
			Expect(ret[0]).To(Equal(interpreter.Value{15, 0xfffffffe}))
		})

		It("extracts bit fields", func() {
			ret := run(`
kernel k
  arg %0:i32, #0
  ubit_extract %1:i32, #8, #16, %0
  ret %1
end`, nil, scalar(0xaabbccdd))
			Expect(ret[0][0]).To(Equal(uint32(0xbb)))
		})

		It("selects 64-bit elements with a 32-bit mask", func() {
			ret := run(`
kernel k
  arg %0:v2i32, #0
  arg %1:v2i64, #1
  arg %2:v2i64, #2
  cmov_logical %3:v2i64, %0, %1, %2
  ret %3
end`, nil, interpreter.Value{0xffffffff, 0}, interpreter.Value{1, 2, 3, 4}, interpreter.Value{5, 6, 7, 8})
			Expect(ret[0]).To(Equal(interpreter.Value{1, 2, 7, 8}))
		})
	})

	Context("64-bit elements", func() {
		It("adds with carry between halves", func() {
			ret := run(`
kernel k
  arg %0:i64, #0
  arg %1:i64, #1
  i64add %2:i64, %0, %1
  ret %2
end`, nil, interpreter.Value{0xffffffff, 0}, interpreter.Value{1, 0})
			Expect(ret[0]).To(Equal(interpreter.Value{0, 1}))
		})

		It("produces one mask lane per element", func() {
			ret := run(`
kernel k
  arg %0:v2i64, #0
  arg %1:v2i64, #1
  i64lt %2:v2i32, %0, %1
  ret %2
end`, nil, interpreter.Value{0, 0xffffffff, 5, 0}, interpreter.Value{0, 0, 4, 0})
			Expect(ret[0]).To(Equal(interpreter.Value{0xffffffff, 0}))
		})

		It("assembles and splits halves", func() {
			ret := run(`
kernel k
  arg %0:v2i32, #0
  arg %1:v2i32, #1
  lcreate %2:v2i64, %0, %1
  lhi %3:v2i32, %2
  ret %2, %3
end`, nil, interpreter.Value{1, 2}, interpreter.Value{3, 4})
			Expect(ret[0]).To(Equal(interpreter.Value{1, 3, 2, 4}))
			Expect(ret[1]).To(Equal(interpreter.Value{3, 4}))
		})
	})

	Context("floating point", func() {
		It("rounds the product of mad separately", func() {
			a := float32(1) + float32(math.Ldexp(1, -12))
			ret := run(`
kernel k
  arg %0:f32, #0
  arg %1:f32, #1
  mad %2:f32, %0, %0, %1
  ret %2
end`, nil, scalar(math.Float32bits(a)), scalar(math.Float32bits(-1)))
			Expect(math.Float32frombits(ret[0][0])).To(Equal(float32(a*a) - 1))
		})

		It("clamps float to integer conversions", func() {
			src := `
kernel k
  arg %0:f32, #0
  ftoi %1:i32, %0
  ftou %2:i32, %0
  ret %1, %2
end`
			ret := run(src, nil, scalar(math.Float32bits(float32(math.NaN()))))
			Expect(ret[0][0]).To(BeZero())
			Expect(ret[1][0]).To(BeZero())
			ret = run(src, nil, scalar(math.Float32bits(-1e20)))
			Expect(ret[0][0]).To(Equal(uint32(0x80000000)))
			Expect(ret[1][0]).To(BeZero())
			ret = run(src, nil, scalar(math.Float32bits(-2.5)))
			Expect(int32(ret[0][0])).To(Equal(int32(-2)))
		})

		It("converts doubles", func() {
			d := math.Float64bits(-3.75)
			ret := run(`
kernel k
  arg %0:f64, #0
  d2f %1:f32, %0
  dtoi %2:i32, %0
  dtrunc %3:f64, %0
  ret %1, %2, %3
end`, nil, interpreter.Value{uint32(d), uint32(d >> 32)})
			Expect(math.Float32frombits(ret[0][0])).To(Equal(float32(-3.75)))
			Expect(int32(ret[1][0])).To(Equal(int32(-3)))
			Expect(math.Float64frombits(uint64(ret[2][0]) | uint64(ret[2][1])<<32)).To(Equal(-3.0))
		})

		It("broadcasts scalar double literals", func() {
			ret := run(`
kernel k
  literal f64 1.5
  arg %0:v2f64, #0
  loadconst %1:f64, l0
  dadd %2:v2f64, %0, %1
  ret %2
end`, nil, interpreter.Value{0, 0, 0, 0})
			one5 := math.Float64bits(1.5)
			Expect(ret[0]).To(Equal(interpreter.Value{uint32(one5), uint32(one5 >> 32), uint32(one5), uint32(one5 >> 32)}))
		})
	})

	Context("vectors", func() {
		It("extracts, inserts and concatenates lanes", func() {
			ret := run(`
kernel k
  arg %0:v4i32, #0
  vextract %1:i32, %0, #2
  vinsert %2:v4i32, %0, %1, #0
  vconcat %3:v4i32, %1, %1
  ret %1, %2, %3
end`, nil, interpreter.Value{1, 2, 3, 4})
			Expect(ret[0][0]).To(Equal(uint32(3)))
			Expect(ret[1]).To(Equal(interpreter.Value{3, 2, 3, 4}))
			Expect(ret[2]).To(Equal(interpreter.Value{3, 3, 0, 0}))
		})
	})

	Context("memory", func() {
		var mem *interpreter.Memory

		BeforeEach(func() {
			mem = interpreter.NewMemory(map[uint32]int{11: 64}, 64, 16)
		})

		It("round trips raw UAV dwords", func() {
			run(`
kernel k
  arg %0:v4i32, #0
  arg %1:i32, #1
  uav_raw_store %0, %1, #11
  uav_raw_load %2:v2i32, %1, #11
  ret %2
end`, mem, interpreter.Value{1, 2, 3, 4}, scalar(8))
			Expect(mem.UAV[11][8:12]).To(Equal([]byte{1, 0, 0, 0}))
			Expect(mem.UAV[11][20:24]).To(Equal([]byte{4, 0, 0, 0}))
		})

		It("stores the low bytes of sub-word UAV stores", func() {
			run(`
kernel k
  arg %0:i32, #0
  arg %1:i32, #1
  arg %2:i32, #2
  uav_short_store %0, %1, #11
  uav_byte_store %0, %2, #11
  ret
end`, mem, scalar(0xaabbccdd), scalar(6), scalar(9))
			Expect(mem.UAV[11][4:12]).To(Equal([]byte{0, 0, 0xdd, 0xcc, 0, 0xdd, 0, 0}))
		})

		It("rejects misaligned short stores", func() {
			_, err := interpreter.Run(mustParse(`
kernel k
  arg %0:i32, #0
  uav_short_store %0, %0, #11
  ret
end`), []interpreter.Value{scalar(3)}, mem)
			Expect(err).To(MatchError(ContainSubstring("misaligned address 0x3")))
		})

		It("writes single lanes of LDS loads", func() {
			mem.LDS[4] = 9
			ret := run(`
kernel k
  arg %0:v2i32, #0
  arg %1:i32, #1
  mov %2:v2i32, %0
  lds_load_y %2, %1, #1
  ret %2
end`, mem, interpreter.Value{7, 8}, scalar(4))
			Expect(ret[0]).To(Equal(interpreter.Value{7, 9}))
		})

		It("rejects misaligned addresses", func() {
			_, err := interpreter.Run(mustParse(`
kernel k
  arg %0:i32, #0
  uav_raw_load %1:i32, %0, #11
  ret %1
end`), []interpreter.Value{scalar(2)}, mem)
			Expect(err).To(MatchError(ContainSubstring("misaligned address 0x2")))
		})

		It("rejects unknown resources", func() {
			_, err := interpreter.Run(mustParse(`
kernel k
  arg %0:i32, #0
  uav_raw_load %1:i32, %0, #3
  ret %1
end`), []interpreter.Value{scalar(0)}, mem)
			Expect(err).To(MatchError(ContainSubstring("no UAV with id 3")))
		})
	})

	It("refuses pseudo operations", func() {
		_, err := interpreter.Run(mustParse(`
kernel k
  arg %0:i32, #0
  ADD %1:i32, %0, %0
  ret %1
end`), []interpreter.Value{scalar(1)}, nil)
		Expect(err).To(MatchError(ContainSubstring("pseudo operation ADD cannot execute")))
	})
})
