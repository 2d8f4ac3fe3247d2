// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command drm-report prints the hardware report of DRM controllers.
//
// Usage: drm-report [OPTIONS] TARGET [TARGET...]
//
// A target is one of:
//
//	mem:FILE@BASE       controller mapped at physical address BASE of FILE
//	modbus:HOST:PORT@N  controller exposed from holding register N
//
// Example:
//
//	$> drm-report mem:/dev/mem@0x43c00000
//	$> drm-report -v -log /var/log/drm-report.log modbus:10.0.0.2:502@0
package main // import "github.com/Accelize/drm-sub002/cmd/drm-report"

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Accelize/drm-sub002/hwkit"
	"github.com/Accelize/drm-sub002/regio"
	tlog "github.com/go-daq/tdaq/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	var (
		span    = flag.Int("span", 0x10000, "size of the memory-mapped register window (mem targets)")
		slave   = flag.Uint("slave", 1, "modbus unit identifier (modbus targets)")
		timeout = flag.Duration("timeout", 5*time.Second, "modbus request timeout (modbus targets)")
		fname   = flag.String("log", "", "path to a rotating log file")
		verbose = flag.Bool("v", false, "enable debug messages")
		stats   = flag.Bool("stats", false, "print register access statistics")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `drm-report prints the hardware report of DRM controllers.

Usage: drm-report [OPTIONS] TARGET [TARGET...]

Targets:
  mem:FILE@BASE        controller mapped at physical address BASE of FILE
  modbus:HOST:PORT@N   controller exposed from holding register N

Example:

 $> drm-report mem:/dev/mem@0x43c00000
 $> drm-report -v -log /var/log/drm-report.log modbus:10.0.0.2:502@0

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	log.SetPrefix("drm-report: ")
	log.SetFlags(0)

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing target")
	}

	var (
		logw io.Writer = os.Stderr
		logc io.Closer
	)
	if *fname != "" {
		rot := &lumberjack.Logger{
			Filename:   *fname,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		logw = io.MultiWriter(os.Stderr, rot)
		logc = rot
		log.SetOutput(logw)
	}

	cfg := config{
		span:    *span,
		slave:   uint8(*slave),
		timeout: *timeout,
		logw:    logw,
		lvl:     tlog.LvlInfo,
	}
	if *verbose {
		cfg.lvl = tlog.LvlDebug
	}

	reg := prometheus.NewRegistry()
	cfg.metrics = hwkit.NewMetrics(reg)

	err := run(os.Stdout, flag.Args(), cfg)
	if *stats {
		printStats(logw, reg)
	}
	if code := finish(err, logc); code != 0 {
		os.Exit(code)
	}
}

// finish logs err, closes the log file (if any) and returns the exit code.
func finish(err error, logc io.Closer) int {
	if err != nil {
		log.Printf("could not report: %+v", err)
	}
	if logc != nil {
		// lumberjack reopens its file on write.
		log.SetOutput(os.Stderr)
		if cerr := logc.Close(); cerr != nil {
			log.Printf("could not close log file: %+v", cerr)
		}
	}
	if err != nil {
		return 1
	}
	return 0
}

type config struct {
	span    int
	slave   uint8
	timeout time.Duration

	logw    io.Writer
	lvl     tlog.Level
	metrics *hwkit.Metrics
}

var openBackend = openTarget

func openTarget(target string, cfg config) (regio.Backend, error) {
	return regio.Open(target, regio.TargetConfig{
		Span:    cfg.span,
		SlaveID: cfg.slave,
		Timeout: cfg.timeout,
	})
}

// run reports all targets concurrently and prints the reports in the
// order of targets.
func run(w io.Writer, targets []string, cfg config) error {
	var (
		grp  errgroup.Group
		outs = make([]bytes.Buffer, len(targets))
	)
	for i := range targets {
		i := i
		grp.Go(func() error {
			err := report(&outs[i], targets[i], cfg)
			if err != nil {
				return fmt.Errorf("target %q: %w", targets[i], err)
			}
			return nil
		})
	}
	err := grp.Wait()

	for i := range targets {
		fmt.Fprintf(w, "### %s\n", targets[i])
		_, werr := w.Write(outs[i].Bytes())
		if werr != nil && err == nil {
			err = fmt.Errorf("could not write report: %w", werr)
		}
	}
	return err
}

func report(w io.Writer, target string, cfg config) error {
	be, err := openBackend(target, cfg)
	if err != nil {
		return fmt.Errorf("could not open backend: %w", err)
	}
	defer be.Close()

	msg := tlog.NewMsgStream(target, cfg.lvl, cfg.logw)
	ctl, err := hwkit.New(
		be.Read, be.Write,
		hwkit.WithMsgStream(msg),
		hwkit.WithMetrics(cfg.metrics),
	)
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}

	vers, err := ctl.HardwareVersion()
	if err != nil {
		return fmt.Errorf("could not read hardware version: %w", err)
	}
	fmt.Fprintf(w, "mode:     %v\n", ctl.Mode())
	fmt.Fprintf(w, "hardware: %s\n", vers)
	fmt.Fprintf(w, "software: %s\n", hwkit.SoftwareVersion)
	err = ctl.CheckVersion()
	if err != nil {
		msg.Warnf("%v", err)
	}

	err = ctl.PrintHwReport(w)
	if err != nil {
		return fmt.Errorf("could not print hardware report: %w", err)
	}

	return nil
}

func printStats(w io.Writer, reg prometheus.Gatherer) {
	mfs, err := reg.Gather()
	if err != nil {
		log.Printf("could not gather statistics: %+v", err)
		return
	}
	sort.Slice(mfs, func(i, j int) bool { return mfs[i].GetName() < mfs[j].GetName() })
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var lbls []string
			for _, lbl := range m.GetLabel() {
				lbls = append(lbls, lbl.GetName()+"="+lbl.GetValue())
			}
			name := mf.GetName()
			if len(lbls) > 0 {
				name += "{" + strings.Join(lbls, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%-40s %v\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%-40s count=%d sum=%gs\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}
