package il

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const parseTestSource = `
; two kernels
kernel copy
  resource global 11
  resource local 1
  local 64
  literal i32 0x3
  arg %0:i32, #0
  arg %1:i32, #1
  LOAD.local.2.sext.hw %2:i16, %0
  STORE.global.2 %2, %1
  loadconst %3:i32, l0
  SETCC.ult %4:i32, %0, %3
  SELECT_CC.oge %5:f32, %6:f32, %7:f32, %6, %7
  call $helper, %5, #1.5f, @table
  ret %4
end

kernel empty
  region 16
end
`

func TestParse(t *testing.T) {
	m, err := ParseModule(parseTestSource)
	require.NoError(t, err)
	require.Equal(t, 2, len(m.Functions))

	f := m.Functions[0]
	require.Equal(t, "copy", f.Name())
	require.Equal(t, uint32(11), f.Kernel.ResourceID(AddressSpaceGlobal))
	require.Equal(t, uint32(64), f.Kernel.LocalSize)
	require.Equal(t, 1, f.Kernel.Literals.Len())

	instrs := f.Instructions()
	require.Equal(t, 9, len(instrs))

	load := instrs[2]
	require.Equal(t, OpcodeLoad, load.Opcode())
	require.Equal(t, MemAccess{Space: AddressSpaceLocal, Size: 2, Ext: ExtSign, HWEligible: true}, load.Mem())
	require.Equal(t, NewVReg(2, RegClassI16), load.Def())

	store := instrs[3]
	require.Equal(t, NewVReg(2, RegClassI16), store.Arg(0))

	require.Equal(t, CondULT, instrs[5].Cond())
	require.Equal(t, CondOGE, instrs[6].Cond())

	call := instrs[7]
	require.Equal(t, OperandKindExternal, call.Operand(0).Kind())
	require.Equal(t, "helper", call.Operand(0).Symbol())
	require.Equal(t, 1.5, call.Operand(2).FImm())
	require.Equal(t, "table", call.Operand(3).Symbol())

	require.Equal(t, uint32(16), m.Functions[1].Kernel.RegionSize)
	require.Equal(t, 0, m.Functions[1].Len())
}

func TestParse_roundTrip(t *testing.T) {
	m, err := ParseModule(parseTestSource)
	require.NoError(t, err)
	text := m.Format()

	again, err := ParseModule(text)
	require.NoError(t, err)
	require.Equal(t, text, again.Format())
}

func TestParse_errors(t *testing.T) {
	for _, tc := range []struct {
		name, src, exp string
	}{
		{name: "no header", src: "iadd %0:i32, %1:i32, %2:i32", exp: "line 1: expected kernel header"},
		{name: "missing end", src: "kernel k\n", exp: "kernel k: missing end"},
		{name: "unknown opcode", src: "kernel k\nfrob %0:i32\nend", exp: "line 2: unknown opcode \"frob\""},
		{name: "class missing", src: "kernel k\nmov %0:i32, %1\nend", exp: "line 2: register %1 used without a class"},
		{name: "class mismatch", src: "kernel k\nmov %0:i32, %0:f32\nend", exp: "line 2: register %0 redeclared as f32, was i32"},
		{name: "bad size", src: "kernel k\nLOAD.global.3 %0:i32, %1:i32\nend", exp: "line 2: invalid access size \"3\""},
		{name: "bad cond", src: "kernel k\nSETCC.foo %0:i32, %1:i32, %2:i32\nend", exp: "line 2: unknown condition \"foo\""},
		{name: "undefined literal", src: "kernel k\nloadconst %0:i32, l4\nend", exp: "line 2: literal l4 not defined"},
		{name: "def not reg", src: "kernel k\nmov #1, %0:i32\nend", exp: "line 2: mov: definition 0 is not a register"},
		{name: "modifier", src: "kernel k\niadd.x %0:i32, %1:i32, %1\nend", exp: "line 2: iadd takes no modifiers"},
		{name: "arity", src: "kernel k\niadd %0:i32, %1:i32\nend", exp: "line 2: iadd wants 3 operands, got 2"},
		{name: "pseudo immediate", src: "kernel k\nADD %0:i32, %1:i32, #1\nend", exp: "line 2: ADD: operand 2 is not a register"},
		{name: "float add", src: "kernel k\nADD %0:f32, %1:f32, %1\nend", exp: "line 2: ADD: f32 is not an integer class"},
		{name: "mixed add", src: "kernel k\nADD %0:i32, %1:i32, %2:i16\nend", exp: "line 2: ADD: operand 2 is i16, want i32"},
		{name: "fp to int from int", src: "kernel k\nFP_TO_SINT %0:i32, %1:i32\nend", exp: "line 2: FP_TO_SINT converts float to integer, got i32 to i32"},
		{name: "int to fp into int", src: "kernel k\nSINT_TO_FP %0:i32, %1:i32\nend", exp: "line 2: SINT_TO_FP converts integer to float, got i32 to i32"},
		{name: "fp to int lanes", src: "kernel k\nFP_TO_UINT %0:v2i32, %1:f32\nend", exp: "line 2: FP_TO_UINT: v2i32 and f32 differ in element count"},
		{name: "ctlz f32", src: "kernel k\nCTLZ %0:f32, %1:f32\nend", exp: "line 2: CTLZ: f32 is not a 16, 32 or 64-bit integer class"},
		{name: "ctlz i8", src: "kernel k\nCTLZ %0:i8, %1:i8\nend", exp: "line 2: CTLZ: i8 is not a 16, 32 or 64-bit integer class"},
		{name: "setcc i64", src: "kernel k\nSETCC.eq %0:i64, %1:i64, %1\nend", exp: "line 2: SETCC: i64 is not a 32-bit or narrower integer class"},
		{name: "ordered integer compare", src: "kernel k\nSETCC.oeq %0:i32, %1:i32, %1\nend", exp: "line 2: SETCC: condition oeq does not apply to i32"},
		{name: "select arms", src: "kernel k\nSELECT_CC.eq %0:i32, %1:i32, %1, %2:i32, %3:i16\nend", exp: "line 2: SELECT_CC: operand 4 is i16, want i32"},
		{name: "wide address", src: "kernel k\nLOAD.global.4 %0:i32, %1:i64\nend", exp: "line 2: LOAD: address is i64, not i32"},
		{name: "oversized load", src: "kernel k\nLOAD.global.8 %0:i32, %1:i32\nend", exp: "line 2: LOAD: 8 bytes do not fit i32"},
		{name: "arg index", src: "kernel k\narg %0:i32, %1:i32\nend", exp: "line 2: arg: operand 1 is not an immediate"},
		{name: "lhi of i32", src: "kernel k\nlhi %0:i32, %1:i32\nend", exp: "line 2: lhi: operand 1 is i32, not 64-bit"},
		{name: "lcreate of i64", src: "kernel k\nlcreate %0:i64, %1:i64, %2:i32\nend", exp: "line 2: lcreate: operand 1 is i64, not a 32-bit half"},
		{name: "vextract lane", src: "kernel k\nvextract %0:v2i32, %1:v4i32, #1\nend", exp: "line 2: vextract: cannot extract 2 lanes at lane 1 of 4"},
		{name: "vinsert vector", src: "kernel k\nvinsert %0:v2i32, %1:v2i32, %1, #0\nend", exp: "line 2: vinsert: cannot insert 2 lanes at lane 0 of 2"},
		{name: "vconcat v4i32", src: "kernel k\nvconcat %0:v4i32, %1:v4i32, %1\nend", exp: "line 2: vconcat: cannot concatenate 4 lane halves"},
		{name: "missing lane", src: "kernel k\nlds_store_z %0:v2i32, %1:i32, #1\nend", exp: "line 2: lds_store_z: v2i32 has no lane 2"},
		{name: "resource id", src: "kernel k\nlds_load %0:i32, %1:i32, %1\nend", exp: "line 2: lds_load: operand 2 is not an immediate"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseModule(tc.src)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.exp)
		})
	}
}

func TestCondCode_IsInteger(t *testing.T) {
	for _, tc := range []struct {
		cond CondCode
		exp  bool
	}{
		{cond: CondEQ, exp: true},
		{cond: CondULT, exp: true},
		{cond: CondTrue, exp: true},
		{cond: CondOEQ, exp: false},
		{cond: CondUNE, exp: false},
		{cond: CondUO, exp: false},
	} {
		tc := tc
		t.Run(tc.cond.String(), func(t *testing.T) {
			require.Equal(t, tc.exp, tc.cond.IsInteger())
		})
	}
}
