package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
	"github.com/tetratelabs/amdil/internal/interpreter"
)

var values64 = []uint64{
	0, 1, 2, 0xffffffff, 0x100000000, 0x1_0000_0001, 0x7fffffffffffffff, 0x8000000000000000,
	0xffffffffffffffff, 0x123456789abcdef0, 0xfffffffe00000001,
}

func TestLower_arith64(t *testing.T) {
	const src = `
kernel k
  arg %0:i64, #0
  arg %1:i64, #1
  ADD %2:i64, %0, %1
  SUB %3:i64, %0, %1
  MUL %4:i64, %0, %1
  ret %2, %3, %4
end`
	for _, dev := range testDevices() {
		dev := dev
		t.Run(devName(dev), func(t *testing.T) {
			fn := lowerSource(t, dev, src)
			for _, a := range values64 {
				for _, b := range values64 {
					ret := exec(t, fn, nil, val64(a), val64(b))
					require.Equal(t, a+b, get64(ret[0]), "%#x + %#x", a, b)
					require.Equal(t, a-b, get64(ret[1]), "%#x - %#x", a, b)
					require.Equal(t, a*b, get64(ret[2]), "%#x * %#x", a, b)
				}
			}
		})
	}
}

func TestLower_arith64_vector(t *testing.T) {
	const src = `
kernel k
  arg %0:v2i64, #0
  arg %1:v2i64, #1
  ADD %2:v2i64, %0, %1
  MUL %3:v2i64, %0, %1
  ret %2, %3
end`
	for _, dev := range representativeDevices() {
		dev := dev
		t.Run(devName(dev), func(t *testing.T) {
			fn := lowerSource(t, dev, src)
			a0, a1 := uint64(0xffffffff), uint64(0x8000000000000000)
			b0, b1 := uint64(1), uint64(0xffffffffffffffff)
			ret := exec(t, fn, nil,
				interpreter.Value{uint32(a0), uint32(a0 >> 32), uint32(a1), uint32(a1 >> 32)},
				interpreter.Value{uint32(b0), uint32(b0 >> 32), uint32(b1), uint32(b1 >> 32)})
			sum0, sum1 := a0+b0, a1+b1
			require.Equal(t, interpreter.Value{uint32(sum0), uint32(sum0 >> 32), uint32(sum1), uint32(sum1 >> 32)}, ret[0])
			p0, p1 := a0*b0, a1*b1
			require.Equal(t, interpreter.Value{uint32(p0), uint32(p0 >> 32), uint32(p1), uint32(p1 >> 32)}, ret[1])
		})
	}
}

var divOperands = []int64{0, 1, 2, 3, 5, 7, 17, 100, 127, 255, 1000, 32767, -1, -2, -7, -128, -100, -32768, 0x7fffffff, -0x80000000}

func TestLower_divRem(t *testing.T) {
	for _, bits := range []int{8, 16, 32, 64} {
		class := il.RegClassFor(1, bits, false)
		src := fmt.Sprintf(`
kernel k
  arg %%0:%[1]s, #0
  arg %%1:%[1]s, #1
  SDIV %%2:%[1]s, %%0, %%1
  SREM %%3:%[1]s, %%0, %%1
  UDIV %%4:%[1]s, %%0, %%1
  UREM %%5:%[1]s, %%0, %%1
  ret %%2, %%3, %%4, %%5
end`, class)
		mask := uint64(1)<<bits - 1
		if bits == 64 {
			mask = ^uint64(0)
		}
		sext := func(v uint64) int64 { return int64(v<<(64-bits)) >> (64 - bits) }
		operands := divOperands
		if bits == 64 {
			operands = append(operands, -0x8000000000000000, 0x7fffffffffffffff, 0x123456789abcdef)
		}

		for _, dev := range representativeDevices() {
			dev := dev
			t.Run(fmt.Sprintf("%s/%s", class, devName(dev)), func(t *testing.T) {
				fn := lowerSource(t, dev, src)
				for _, x := range operands {
					for _, y := range operands {
						a, b := uint64(x)&mask, uint64(y)&mask
						if b == 0 {
							continue
						}
						ret := exec(t, fn, nil, val64(a), val64(b))
						sq, sr := get64(ret[0])&mask, get64(ret[1])&mask
						uq, ur := get64(ret[2])&mask, get64(ret[3])&mask

						sa, sb := sext(a), sext(b)
						require.Equal(t, uint64(sa/sb)&mask, sq, "%d / %d", sa, sb)
						require.Equal(t, uint64(sa%sb)&mask, sr, "%d %% %d", sa, sb)
						require.Equal(t, a, (sq*b+sr)&mask, "signed identity for %d, %d", sa, sb)
						require.Equal(t, a/b, uq, "%d / %d", a, b)
						require.Equal(t, a%b, ur, "%d %% %d", a, b)
						require.Equal(t, a, (uq*b+ur)&mask, "unsigned identity for %d, %d", a, b)
					}
				}
			})
		}
	}
}

func TestLower_unsignedRemainder32(t *testing.T) {
	dev := device.MustLookup("rv710", 0)
	fn := lowerSource(t, dev, "kernel k\n arg %0:i32, #0\n arg %1:i32, #1\n UREM %2:i32, %0, %1\n ret %2\nend")
	for _, instr := range fn.Instructions() {
		require.NotEqual(t, il.OpcodeUMod32, instr.Opcode())
	}
	ret := exec(t, fn, nil, val32(17), val32(5))
	require.Equal(t, uint32(2), ret[0][0])
}

func TestLower_signedDivision64(t *testing.T) {
	const src = `
kernel k
  arg %0:i64, #0
  arg %1:i64, #1
  SDIV %2:i64, %0, %1
  SREM %3:i64, %0, %1
  ret %2, %3
end`
	for _, dev := range testDevices() {
		dev := dev
		t.Run(devName(dev), func(t *testing.T) {
			fn := lowerSource(t, dev, src)
			x := int64(-7)
			ret := exec(t, fn, nil, val64(uint64(x)), val64(2))
			require.Equal(t, int64(-3), int64(get64(ret[0])))
			require.Equal(t, int64(-1), int64(get64(ret[1])))
		})
	}
}

func TestLower_narrowArith(t *testing.T) {
	const src = `
kernel k
  arg %0:v4i8, #0
  arg %1:v4i8, #1
  ADD %2:v4i8, %0, %1
  MUL %3:v4i8, %0, %1
  ret %2, %3
end`
	fn := lowerSource(t, device.MustLookup("cedar", 0), src)
	ret := exec(t, fn, nil, interpreter.Value{200, 1, 16, 255}, interpreter.Value{100, 2, 16, 255})
	for j, exp := range []uint8{44, 3, 32, 254} {
		require.Equal(t, exp, uint8(ret[0][j]))
	}
	for j, exp := range []uint8{32, 2, 0, 1} {
		require.Equal(t, exp, uint8(ret[1][j]))
	}
}
