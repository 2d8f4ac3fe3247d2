// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"os"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"DRM_CONTROLLER_TIMEOUT_IN_MICRO_SECONDS",
		"DRM_CONTROLLER_SLEEP_IN_MICRO_SECONDS",
	} {
		t.Setenv(k, "") // restores the variable at the end of the test.
		os.Unsetenv(k)
	}

	cfg, err := newConfig()
	if err != nil {
		t.Fatalf("could not load configuration: %+v", err)
	}
	if got, want := cfg.timeout, 10*time.Second; got != want {
		t.Fatalf("invalid timeout: got=%v, want=%v", got, want)
	}
	if got, want := cfg.extract, 30*time.Second; got != want {
		t.Fatalf("invalid extract timeout: got=%v, want=%v", got, want)
	}
	if got, want := cfg.sleep, 100*time.Microsecond; got != want {
		t.Fatalf("invalid sleep: got=%v, want=%v", got, want)
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("DRM_CONTROLLER_TIMEOUT_IN_MICRO_SECONDS", "2500")
	t.Setenv("DRM_CONTROLLER_SLEEP_IN_MICRO_SECONDS", "7")

	cfg, err := newConfig()
	if err != nil {
		t.Fatalf("could not load configuration: %+v", err)
	}
	if got, want := cfg.timeout, 2500*time.Microsecond; got != want {
		t.Fatalf("invalid timeout: got=%v, want=%v", got, want)
	}
	if got, want := cfg.sleep, 7*time.Microsecond; got != want {
		t.Fatalf("invalid sleep: got=%v, want=%v", got, want)
	}

	// options take precedence over the environment.
	opt := WithTimeout(time.Second)
	opt(&cfg)
	if got, want := cfg.timeout, time.Second; got != want {
		t.Fatalf("invalid timeout: got=%v, want=%v", got, want)
	}
}

func TestConfigEnvInvalid(t *testing.T) {
	t.Setenv("DRM_CONTROLLER_SLEEP_IN_MICRO_SECONDS", "-1")

	_, err := newConfig()
	if err == nil {
		t.Fatalf("expected an error")
	}

	hw := newFakeHW(0x040201, 1, false)
	_, err = New(hw.read, hw.write)
	if err == nil {
		t.Fatalf("expected an error")
	}
}
