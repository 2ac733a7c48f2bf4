package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/pkg/errors"
	"github.com/tebeka/atexit"
	"github.com/urfave/cli"

	"github.com/tetratelabs/amdil"
	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/version"
)

func main() {
	stdOut := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { _ = stdOut.Flush() })
	doMain(os.Args, stdOut, os.Stderr, atexit.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	app := newApp(stdOut, stdErr)
	if err := app.Run(args); err != nil {
		fmt.Fprintln(stdErr, err)
		code := 1
		if coder, ok := err.(cli.ExitCoder); ok {
			code = coder.ExitCode()
		}
		exit(code)
		return
	}
	exit(0)
}

func newApp(stdOut, stdErr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "amdilc"
	app.Usage = "lower pseudo IL kernels into AMD IL for a Radeon device"
	app.Version = version.GetAmdilVersion()
	// -v is verbose logging; the version is printed by the version command.
	app.HideVersion = true
	app.Writer = stdOut
	app.ErrWriter = stdErr
	// Exit codes are handled by doMain.
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "log lowering decisions to stderr",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "compile",
			Usage:     "compile IL source files",
			ArgsUsage: "<path to IL file>...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "target, t",
					Value: "cypress",
					Usage: "device to compile for, see the devices command",
				},
				cli.UintFlag{
					Name:  "cal",
					Usage: "CAL toolchain version, 0 for the default",
				},
				cli.StringFlag{
					Name:  "cachedir",
					Usage: "writeable directory for the compilation cache",
				},
				cli.StringFlag{
					Name:  "o",
					Usage: "write IL text to this file instead of stdout",
				},
			},
			Action: func(c *cli.Context) error {
				return doCompile(c, stdOut, stdErr)
			},
		},
		{
			Name:  "version",
			Usage: "print the amdilc version",
			Action: func(c *cli.Context) error {
				_, err := fmt.Fprintln(stdOut, version.GetAmdilVersion())
				return errors.WithStack(err)
			},
		},
		{
			Name:  "devices",
			Usage: "list the devices and their hardware capabilities",
			Action: func(c *cli.Context) error {
				return doDevices(stdOut)
			},
		},
	}
	return app
}

func doCompile(c *cli.Context, stdOut, stdErr io.Writer) error {
	if c.NArg() == 0 {
		return cli.NewExitError("missing path to IL file", 1)
	}

	config := amdil.NewCompilerConfig().
		WithTarget(c.String("target")).
		WithCALVersion(uint32(c.Uint("cal")))
	if c.GlobalBool("v") {
		config = config.WithLogger(newLogger(stdErr))
	}
	if dir := c.String("cachedir"); dir != "" {
		cache, err := amdil.NewCompilationCacheWithDir(dir)
		if err != nil {
			return errors.Wrap(err, "invalid cachedir")
		}
		config = config.WithCompilationCache(cache)
	}
	compiler, err := amdil.NewCompilerWithConfig(config)
	if err != nil {
		return err
	}

	out := stdOut
	if path := c.String("o"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		out = f
	}

	var failed int
	for _, path := range c.Args() {
		source, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "error reading IL file")
		}
		res, err := compiler.Compile(context.Background(), source)
		if err != nil {
			return errors.Wrapf(err, "error compiling %s", path)
		}
		for _, k := range res.Kernels {
			for _, d := range k.Diagnostics {
				fmt.Fprintf(stdErr, "%s: %s: %s\n", path, k.Name, d)
			}
			if k.Err != nil {
				failed++
				continue
			}
			if _, err = io.WriteString(out, k.Text); err != nil {
				return errors.Wrap(err, "error writing IL text")
			}
		}
	}
	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d kernel(s) failed to compile for %s", failed, compiler.Device()), 1)
	}
	return nil
}

func doDevices(stdOut io.Writer) error {
	for _, name := range device.Names() {
		d := device.MustLookup(name, 0)
		var hw []string
		for _, c := range device.AllCapabilities() {
			if d.UsesHardware(c) {
				hw = append(hw, c.String())
			}
		}
		if _, err := fmt.Fprintf(stdOut, "%-8s %s %s\n", name, d.Generation(), strings.Join(hw, ",")); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func newLogger(w io.Writer) logr.Logger {
	return funcr.New(func(prefix, args string) {
		fmt.Fprintln(w, prefix, args)
	}, funcr.Options{Verbosity: 1})
}
