package main

import (
	"bytes"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const addKernel = `kernel add
  resource global 11
  arg %0:i32, #0
  arg %1:i32, #1
  iadd %2:i32, %0, %1
  STORE.global.4 %2, %0
  ret %2
end
`

const regionKernel = `kernel shared
  region 16
  resource region 1
  arg %0:i32, #0
  LOAD.region.4.hw %1:i32, %0
  ret %1
end
`

func writeFile(t *testing.T, name, content string) string {
	p := path.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func runMain(t *testing.T, args ...string) (exitCode int, stdOut, stdErr string) {
	var o, e bytes.Buffer
	exitCode = -1
	doMain(append([]string{"amdilc"}, args...), &o, &e, func(code int) {
		require.Equal(t, -1, exitCode, "exit called twice")
		exitCode = code
	})
	return exitCode, o.String(), e.String()
}

func TestCompile(t *testing.T) {
	addPath := writeFile(t, "add.il", addKernel)
	mixedPath := writeFile(t, "mixed.il", addKernel+regionKernel)

	t.Run("stdout", func(t *testing.T) {
		code, stdOut, stdErr := runMain(t, "compile", "-target", "juniper", addPath)
		require.Equal(t, 0, code, stdErr)
		require.Equal(t, "", stdErr)
		require.True(t, strings.HasPrefix(stdOut, "il_cs_2_0\n; kernel add\n"))
		require.Contains(t, stdOut, "uav_raw_store_id(11)")
	})

	t.Run("output file", func(t *testing.T) {
		out := path.Join(t.TempDir(), "add.txt")
		code, stdOut, stdErr := runMain(t, "compile", "-o", out, addPath)
		require.Equal(t, 0, code, stdErr)
		require.Equal(t, "", stdOut)
		text, err := os.ReadFile(out)
		require.NoError(t, err)
		require.Contains(t, string(text), "; kernel add\n")
	})

	t.Run("failing kernel", func(t *testing.T) {
		code, stdOut, stdErr := runMain(t, "compile", "-t", "rv770", mixedPath)
		require.Equal(t, 1, code)
		require.Contains(t, stdOut, "; kernel add\n")
		require.NotContains(t, stdOut, "; kernel shared\n")
		require.Equal(t, mixedPath+": shared: error: region memory is not supported on rv770\n"+
			"1 kernel(s) failed to compile for rv770\n", stdErr)
	})

	t.Run("cache", func(t *testing.T) {
		dir := t.TempDir()
		code, first, stdErr := runMain(t, "compile", "-cachedir", dir, addPath)
		require.Equal(t, 0, code, stdErr)
		code, second, stdErr := runMain(t, "compile", "-cachedir", dir, addPath)
		require.Equal(t, 0, code, stdErr)
		require.Equal(t, first, second)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Equal(t, 1, len(entries))
	})

	t.Run("verbose", func(t *testing.T) {
		code, _, stdErr := runMain(t, "-v", "compile", addPath)
		require.Equal(t, 0, code)
		require.Contains(t, stdErr, `"msg"="lowering ready"`)
	})

	for _, tc := range []struct {
		name           string
		args           []string
		expectedStdErr string
	}{
		{
			name:           "missing path",
			args:           []string{"compile"},
			expectedStdErr: "missing path to IL file\n",
		},
		{
			name:           "unknown target",
			args:           []string{"compile", "-target", "tahiti", addPath},
			expectedStdErr: "unknown device \"tahiti\"\n",
		},
		{
			name:           "unreadable",
			args:           []string{"compile", path.Join(t.TempDir(), "missing.il")},
			expectedStdErr: "error reading IL file",
		},
		{
			name:           "invalid cachedir",
			args:           []string{"compile", "-cachedir", addPath, addPath},
			expectedStdErr: "invalid cachedir",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			code, _, stdErr := runMain(t, tc.args...)
			require.Equal(t, 1, code)
			require.Contains(t, stdErr, tc.expectedStdErr)
		})
	}
}

func TestDevices(t *testing.T) {
	code, stdOut, _ := runMain(t, "devices")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSuffix(stdOut, "\n"), "\n")
	require.Equal(t, 11, len(lines))
	require.True(t, strings.HasPrefix(lines[0], "barts    HD6XXX "))
	require.True(t, strings.HasPrefix(lines[2], "cayman   HD6XXX "))
	require.Contains(t, lines[2], "double_ops,long_ops,images")
}

func TestVersion(t *testing.T) {
	code, stdOut, _ := runMain(t, "version")
	require.Equal(t, 0, code)
	require.Equal(t, "dev\n", stdOut)
}

func TestVerboseFlag(t *testing.T) {
	// -v is the logging switch, not a version alias.
	code, stdOut, stdErr := runMain(t, "-v", "devices")
	require.Equal(t, 0, code, stdErr)
	require.True(t, strings.HasPrefix(stdOut, "barts "))
}
