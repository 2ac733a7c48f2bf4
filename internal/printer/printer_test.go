package printer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/amdil/internal/il"
	"github.com/tetratelabs/amdil/internal/swizzle"
)

func parseFunction(t *testing.T, src string) *il.Function {
	m, err := il.ParseModule(src)
	require.NoError(t, err)
	require.Equal(t, 1, len(m.Functions))
	return m.Functions[0]
}

func TestFprint(t *testing.T) {
	fn := parseFunction(t, `
kernel k
  resource global 11
  local 32
  literal i32 5
  literal i64 0x100000002
  arg %0:i32, #0
  arg %1:v2i32, #1
  loadconst %2:i32, l0
  iadd %3:i32, %0, %2
  lds_load_y %4:v2i32, %0, #1
  lds_store_x %1, %0, #1
  uav_raw_store %3, %0, #11
  uav_raw_load %5:i32, %0, #11
  dsub %6:f64, %7:f64, %7
  lcreate %8:i64, %3, %5
  vextract %9:i32, %1, #1
  ret %8
end`)
	fn.Kernel.Warnf("kernel k has no lds resource id for local memory, using default 1")
	swizzle.Assign(fn)

	var b strings.Builder
	require.NoError(t, Fprint(&b, fn))
	require.Equal(t, `il_cs_2_0
; kernel k
; warning: kernel k has no lds resource id for local memory, using default 1
dcl_cb cb1[2]
dcl_raw_uav_id(11)
dcl_lds_id(1) 32
dcl_literal l0, 0x00000005, 0x00000005, 0x00000005, 0x00000005
dcl_literal l1, 0x00000002, 0x00000001, 0x00000002, 0x00000001
mov r0.x___, cb1[0]
mov r1.xy__, cb1[1]
mov r2.x___, l0.xxxx
iadd r3.x___, r0.xxxx, r2.xxxx
lds_load_id(1) r4._y__, r0.xxxx
lds_store_id(1) mem0, r0.xxxx, r1.xxxx
uav_raw_store_id(11) mem0, r0.xxxx, r3.xxxx
uav_raw_load_id(11) r5.x___, r0.xxxx
dadd r6.xy__, r7.xyxy, r7.xyxy_neg(y)
ior r8.xy__, r3.x000, r5.0x00
mov r9.x___, r1.yyyy
mov o0, r8.xyxy
ret_dyn
end
`, b.String())
	require.Equal(t, b.String(), String(fn))
}

func TestInstruction(t *testing.T) {
	for _, tc := range []struct {
		src, exp string
	}{
		{src: "vinsert %1:v4i32, %2:v4i32, %0, #2", exp: "ior r1, r2.xy0w, r0.00x0"},
		{src: "vconcat %1:v2i32, %0, %0", exp: "ior r1.xy__, r0.x000, r0.0x00"},
		{src: "dneg %1:f64, %2:f64", exp: "dmov r1.xy__, r2.xyxy_neg(y)"},
		{src: "dhi %1:i32, %2:f64", exp: "mov r1.x___, r2.yyyy"},
		{src: "gds_load_w %1:v4i32, %0, #3", exp: "gds_load_id(3) r1.___w, r0.xxxx"},
		{src: "gds_store %0, %0, #3", exp: "gds_store_id(3) mem0, r0.xxxx, r0.xxxx"},
		{src: "cmov_logical %1:i32, %0, %0, %0", exp: "cmov_logical r1.x___, r0.xxxx, r0.xxxx, r0.xxxx"},
		{src: "dbg_value %0", exp: "; dbg_value r0"},
	} {
		tc := tc
		t.Run(tc.src, func(t *testing.T) {
			fn := parseFunction(t, "kernel k\n arg %0:i32, #0\n "+tc.src+"\nend")
			swizzle.Assign(fn)
			require.Equal(t, tc.exp, Instruction(fn.Instructions()[1]))
		})
	}

	fn := parseFunction(t, "kernel k\n arg %0:i32, #0\n ADD %1:i32, %0, %0\nend")
	require.Panics(t, func() { Instruction(fn.Instructions()[1]) })
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFprint_writeError(t *testing.T) {
	fn := parseFunction(t, "kernel k\n ret\nend")
	require.EqualError(t, Fprint(errWriter{}, fn), "writing kernel k: disk full")
}
