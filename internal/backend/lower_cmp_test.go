package backend

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/amdil/internal/il"
	"github.com/tetratelabs/amdil/internal/interpreter"
)

func TestLower_unorderedGreaterThan(t *testing.T) {
	const src = `
kernel k
  arg %0:f32, #0
  arg %1:f32, #1
  arg %2:f64, #2
  arg %3:f64, #3
  SETCC.ugt %4:i32, %0, %1
  SETCC.ugt %5:i32, %2, %3
  ret %4, %5
end`
	nan := math.NaN()
	for _, dev := range testDevices() {
		dev := dev
		t.Run(devName(dev), func(t *testing.T) {
			fn := lowerSource(t, dev, src)
			for _, tc := range []struct {
				a, b float64
				exp  bool
			}{
				{a: nan, b: 1, exp: true},
				{a: 1, b: nan, exp: true},
				{a: 2, b: 1, exp: true},
				{a: 1, b: 2, exp: false},
				{a: 1, b: 1, exp: false},
			} {
				ret := exec(t, fn, nil, valF32(float32(tc.a)), valF32(float32(tc.b)), valF64(tc.a), valF64(tc.b))
				require.Equal(t, boolLane(tc.exp), ret[0][0], "f32 %v > %v", tc.a, tc.b)
				require.Equal(t, boolLane(tc.exp), ret[1][0], "f64 %v > %v", tc.a, tc.b)
			}
		})
	}
}

func boolLane(b bool) uint32 {
	if b {
		return 0xffffffff
	}
	return 0
}

func floatCondition(cc il.CondCode, a, b float64) bool {
	ordered := !math.IsNaN(a) && !math.IsNaN(b)
	switch cc {
	case il.CondFalse:
		return false
	case il.CondTrue:
		return true
	case il.CondOEQ, il.CondEQ:
		return a == b
	case il.CondOGT, il.CondGT:
		return a > b
	case il.CondOGE, il.CondGE:
		return a >= b
	case il.CondOLT, il.CondLT:
		return a < b
	case il.CondOLE, il.CondLE:
		return a <= b
	case il.CondONE:
		return ordered && a != b
	case il.CondO:
		return ordered
	case il.CondUO:
		return !ordered
	case il.CondUEQ:
		return !ordered || a == b
	case il.CondUGT:
		return !ordered || a > b
	case il.CondUGE:
		return !ordered || a >= b
	case il.CondULT:
		return !ordered || a < b
	case il.CondULE:
		return !ordered || a <= b
	case il.CondUNE, il.CondNE:
		return a != b
	}
	panic(cc.String())
}

var floatConditions = []il.CondCode{
	il.CondFalse, il.CondOEQ, il.CondOGT, il.CondOGE, il.CondOLT, il.CondOLE, il.CondONE, il.CondO, il.CondUO,
	il.CondUEQ, il.CondUGT, il.CondUGE, il.CondULT, il.CondULE, il.CondUNE, il.CondTrue,
	il.CondEQ, il.CondGT, il.CondGE, il.CondLT, il.CondLE, il.CondNE,
}

func TestLower_floatConditions(t *testing.T) {
	operands := []float64{math.NaN(), math.Inf(-1), -1, 0, 1, 2.5, math.Inf(1)}
	for _, dev := range representativeDevices() {
		for _, cc := range floatConditions {
			dev, cc := dev, cc
			t.Run(fmt.Sprintf("%s/%s", devName(dev), cc), func(t *testing.T) {
				fn := lowerSource(t, dev, fmt.Sprintf(`
kernel k
  arg %%0:v2f32, #0
  arg %%1:v2f32, #1
  arg %%2:f64, #2
  arg %%3:f64, #3
  SETCC.%[1]s %%4:v2i32, %%0, %%1
  SETCC.%[1]s %%5:i32, %%2, %%3
  ret %%4, %%5
end`, cc))
				for _, a := range operands {
					for _, b := range operands {
						exp := boolLane(floatCondition(cc, a, b))
						ret := exec(t, fn, nil,
							interpreter.Value{math.Float32bits(float32(a)), math.Float32bits(float32(b))},
							interpreter.Value{math.Float32bits(float32(b)), math.Float32bits(float32(a))},
							valF64(a), valF64(b))
						require.Equal(t, exp, ret[0][0], "f32 %v %s %v", a, cc, b)
						require.Equal(t, boolLane(floatCondition(cc, b, a)), ret[0][1], "f32 %v %s %v", b, cc, a)
						require.Equal(t, exp, ret[1][0], "f64 %v %s %v", a, cc, b)
					}
				}
			})
		}
	}
}

func intCondition(cc il.CondCode, a, b int64, ua, ub uint64) bool {
	switch cc {
	case il.CondEQ:
		return a == b
	case il.CondNE:
		return a != b
	case il.CondLT:
		return a < b
	case il.CondGE:
		return a >= b
	case il.CondGT:
		return a > b
	case il.CondLE:
		return a <= b
	case il.CondULT:
		return ua < ub
	case il.CondUGE:
		return ua >= ub
	case il.CondUGT:
		return ua > ub
	case il.CondULE:
		return ua <= ub
	}
	panic(cc.String())
}

func TestLower_intConditions(t *testing.T) {
	conds := []il.CondCode{
		il.CondEQ, il.CondNE, il.CondLT, il.CondGE, il.CondGT, il.CondLE,
		il.CondULT, il.CondUGE, il.CondUGT, il.CondULE,
	}
	operands := []uint64{0, 1, 0x7f, 0x80, 0xff, 0x7fff, 0x8000, 0xffff, 0x7fffffff, 0x80000000, 0xffffffff,
		0x100000000, 0x7fffffffffffffff, 0x8000000000000000, 0xffffffffffffffff}
	for _, bits := range []int{8, 16, 32, 64} {
		class := il.RegClassFor(1, bits, false)
		mask := ^uint64(0) >> (64 - bits)
		for _, dev := range representativeDevices() {
			for _, cc := range conds {
				bits, dev, cc := bits, dev, cc
				t.Run(fmt.Sprintf("%s/%s/%s", class, devName(dev), cc), func(t *testing.T) {
					fn := lowerSource(t, dev, fmt.Sprintf(`
kernel k
  arg %%0:%[1]s, #0
  arg %%1:%[1]s, #1
  arg %%2:i32, #2
  arg %%3:i32, #3
  SETCC.%[2]s %%4:i32, %%0, %%1
  SELECT_CC.%[2]s %%5:i32, %%0, %%1, %%2, %%3
  ret %%4, %%5
end`, class, cc))
					for _, x := range operands {
						for _, y := range operands {
							// The bits above the width are garbage for narrow classes.
							ret := exec(t, fn, nil, val64(x), val64(y), val32(10), val32(20))
							ux, uy := x&mask, y&mask
							sx, sy := int64(ux<<(64-bits))>>(64-bits), int64(uy<<(64-bits))>>(64-bits)
							exp := intCondition(cc, sx, sy, ux, uy)
							require.Equal(t, boolLane(exp), ret[0][0], "%#x %s %#x", x, cc, y)
							sel := uint32(20)
							if exp {
								sel = 10
							}
							require.Equal(t, sel, ret[1][0], "%#x %s %#x", x, cc, y)
						}
					}
				})
			}
		}
	}
}

func TestLower_selectWide(t *testing.T) {
	const src = `
kernel k
  arg %0:v2i64, #0
  arg %1:v2i64, #1
  arg %2:v2f64, #2
  arg %3:v2f64, #3
  SELECT_CC.lt %4:v2f64, %0, %1, %2, %3
  ret %4
end`
	for _, dev := range representativeDevices() {
		fn := lowerSource(t, dev, src)
		minus1 := uint64(math.MaxUint64)
		ret := exec(t, fn, nil,
			interpreter.Value{uint32(minus1), uint32(minus1 >> 32), 5, 0},
			interpreter.Value{0, 0, 4, 0},
			interpreter.Value{1, 2, 3, 4},
			interpreter.Value{5, 6, 7, 8})
		require.Equal(t, interpreter.Value{1, 2, 7, 8}, ret[0], devName(dev))
	}
}
