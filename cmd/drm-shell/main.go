// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command drm-shell is an interactive console to a DRM controller.
//
// Usage: drm-shell [OPTIONS] TARGET
//
// Example:
//
//	$> drm-shell mem:/dev/mem@0x43c00000
//	drm> version
//	4.2.1
//	drm> dna
//	0123456789ABCDEF0123456789ABCDEF (ready=true, error=0x00)
//	drm> quit
package main // import "github.com/Accelize/drm-sub002/cmd/drm-shell"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Accelize/drm-sub002/hwkit"
	"github.com/Accelize/drm-sub002/regio"
	tlog "github.com/go-daq/tdaq/log"
	"github.com/peterh/liner"
)

func main() {
	var (
		span    = flag.Int("span", 0x10000, "size of the memory-mapped register window (mem targets)")
		slave   = flag.Uint("slave", 1, "modbus unit identifier (modbus targets)")
		timeout = flag.Duration("timeout", 5*time.Second, "modbus request timeout (modbus targets)")
		verbose = flag.Bool("v", false, "enable debug messages")
	)

	flag.Parse()

	log.SetPrefix("drm-shell: ")
	log.SetFlags(0)

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing target")
	}

	be, err := regio.Open(flag.Arg(0), regio.TargetConfig{
		Span:    *span,
		SlaveID: uint8(*slave),
		Timeout: *timeout,
	})
	if err != nil {
		log.Fatalf("could not open target: %+v", err)
	}
	defer be.Close()

	lvl := tlog.LvlInfo
	if *verbose {
		lvl = tlog.LvlDebug
	}

	sh, err := newShell(be, os.Stdout, hwkit.WithMsgStream(tlog.NewMsgStream("drm", lvl, os.Stderr)))
	if err != nil {
		log.Fatalf("could not create controller: %+v", err)
	}

	err = sh.loop()
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

var errQuit = errors.New("quit")

type command struct {
	help string
	run  func(sh *shell, args []string) error
}

var cmds map[string]command

func init() {
	cmds = map[string]command{
		"help":     {"print this help", (*shell).help},
		"quit":     {"leave the shell", func(*shell, []string) error { return errQuit }},
		"read":     {"read OFFSET: read a raw register", (*shell).read},
		"write":    {"write OFFSET VALUE: write a raw register", (*shell).write},
		"version":  {"print the hardware version", (*shell).version},
		"mode":     {"print the controller mode", (*shell).mode},
		"ips":      {"print the number of detected IPs", (*shell).ips},
		"dna":      {"extract the device DNA", (*shell).dna},
		"vlnv":     {"extract the VLNV file", (*shell).vlnv},
		"activate": {"activate HEX: activate a license file", (*shell).activate},
		"timer":    {"timer HEX: load a license timer init value", (*shell).timer},
		"sample":   {"sample the license timer counter", (*shell).sample},
		"metering": {"metering [sync|async|end]: extract metering data", (*shell).metering},
		"mailbox":  {"mailbox [WORD...]: read (or write) the mailbox", (*shell).mailbox},
		"files":    {"print the license, trace and logs files", (*shell).files},
		"report":   {"print the hardware report", (*shell).report},
	}
}

type shell struct {
	be  regio.Backend
	ctl *hwkit.Controller
	w   io.Writer
}

func newShell(be regio.Backend, w io.Writer, opts ...hwkit.Option) (*shell, error) {
	ctl, err := hwkit.New(be.Read, be.Write, opts...)
	if err != nil {
		return nil, err
	}
	return &shell{be: be, ctl: ctl, w: w}, nil
}

func (sh *shell) loop() error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(complete)

	hist := filepath.Join(os.TempDir(), ".drm-shell.history")
	if f, err := os.Open(hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		f, err := os.Create(hist)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = term.WriteHistory(f)
	}()

	for {
		line, err := term.Prompt("drm> ")
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(sh.w)
			return nil
		default:
			return fmt.Errorf("could not read command: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		term.AppendHistory(line)

		err = sh.eval(line)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		default:
			fmt.Fprintf(sh.w, "error: %v\n", err)
		}
	}
}

func complete(line string) []string {
	var out []string
	for name := range cmds {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (sh *shell) eval(line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}
	switch toks[0] {
	case "exit", "q":
		toks[0] = "quit"
	case "?":
		toks[0] = "help"
	}
	cmd, ok := cmds[toks[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", toks[0])
	}
	return cmd.run(sh, toks[1:])
}

func (sh *shell) help(args []string) error {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sh.w, "  %-10s %s\n", name, cmds[name].help)
	}
	return nil
}

func parseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint32(v), nil
}

func (sh *shell) read(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read OFFSET")
	}
	off, err := parseU32(args[0])
	if err != nil {
		return err
	}
	v, err := sh.be.Read(off)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "0x%04X: 0x%08X\n", off, v)
	return nil
}

func (sh *shell) write(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: write OFFSET VALUE")
	}
	off, err := parseU32(args[0])
	if err != nil {
		return err
	}
	v, err := parseU32(args[1])
	if err != nil {
		return err
	}
	return sh.be.Write(off, v)
}

func (sh *shell) version(args []string) error {
	v, err := sh.ctl.HardwareVersion()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.w, v)
	err = sh.ctl.CheckVersion()
	if err != nil {
		fmt.Fprintf(sh.w, "warning: %v\n", err)
	}
	return nil
}

func (sh *shell) mode(args []string) error {
	fmt.Fprintln(sh.w, sh.ctl.Mode())
	return nil
}

func (sh *shell) ips(args []string) error {
	n, err := sh.ctl.NumberOfDetectedIPs()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.w, n)
	return nil
}

func (sh *shell) dna(args []string) error {
	dna, err := sh.ctl.ExtractDNA()
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "%s (ready=%v, error=0x%02X)\n", dna.Value, dna.Ready, dna.ErrorCode)
	return nil
}

func (sh *shell) vlnv(args []string) error {
	vlnv, err := sh.ctl.ExtractVLNVFile()
	if err != nil {
		return err
	}
	for i, v := range vlnv.VLNVs {
		fmt.Fprintf(sh.w, "[%d] %s\n", i, v)
	}
	fmt.Fprintf(sh.w, "(ready=%v, error=0x%02X)\n", vlnv.Ready, vlnv.ErrorCode)
	return nil
}

func (sh *shell) activate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: activate HEX")
	}
	return sh.ctl.Activate(args[0])
}

func (sh *shell) timer(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: timer HEX")
	}
	return sh.ctl.LoadLicenseTimerInit(args[0])
}

func (sh *shell) sample(args []string) error {
	cnt, err := sh.ctl.SampleLicenseTimerCounter()
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "%s (%d)\n", cnt.Hex(), cnt.Value())
	return nil
}

func (sh *shell) metering(args []string) error {
	mode := "sync"
	if len(args) > 0 {
		mode = args[0]
	}

	var (
		mf  hwkit.MeteringFile
		err error
	)
	switch mode {
	case "sync":
		mf, err = sh.ctl.SynchronousExtractMetering()
	case "async":
		mf, err = sh.ctl.AsynchronousExtractMetering()
	case "end":
		mf, err = sh.ctl.EndSessionAndExtractMetering()
	default:
		return fmt.Errorf("usage: metering [sync|async|end]")
	}
	if err != nil {
		return err
	}
	for i, w := range mf.Words {
		fmt.Fprintf(sh.w, "[%d] %s\n", i, w)
	}
	fmt.Fprintf(sh.w, "saas challenge: %s\n", mf.SaasChallenge)
	return nil
}

func (sh *shell) mailbox(args []string) error {
	if len(args) > 0 {
		ws := make([]uint32, len(args))
		for i, arg := range args {
			v, err := parseU32(arg)
			if err != nil {
				return err
			}
			ws[i] = v
		}
		return sh.ctl.WriteMailbox(ws)
	}

	mb, err := sh.ctl.ReadMailbox()
	if err != nil {
		return err
	}
	for i, v := range mb.ReadOnly {
		fmt.Fprintf(sh.w, "ro[%d] 0x%08X\n", i, v)
	}
	for i, v := range mb.ReadWrite {
		fmt.Fprintf(sh.w, "rw[%d] 0x%08X\n", i, v)
	}
	return nil
}

func (sh *shell) files(args []string) error {
	for _, f := range []struct {
		name    string
		extract func() ([]string, error)
	}{
		{"license", sh.ctl.ExtractLicenseFile},
		{"trace", sh.ctl.ExtractTraceFile},
		{"logs", sh.ctl.ExtractLogsFile},
	} {
		ws, err := f.extract()
		if err != nil {
			return fmt.Errorf("could not extract %s file: %w", f.name, err)
		}
		fmt.Fprintf(sh.w, "%s file:\n", f.name)
		for i, w := range ws {
			fmt.Fprintf(sh.w, "  [%d] %s\n", i, w)
		}
	}
	return nil
}

func (sh *shell) report(args []string) error {
	return sh.ctl.PrintHwReport(sh.w)
}
