// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engineconfig holds the small set of process-wide knobs the
// rendering core reads at startup: job count, multi-threading toggle,
// hard-exit-on-error, and memory alignment. It mirrors the shape of
// cogentcore.org/core/base/config's reconciliation helpers in spirit
// (small, declarative, environment-driven) but is a plain settings
// struct rather than a slice-reconciler, since the core has no list of
// named sub-objects to keep in sync — only scalar engine parameters.
package engineconfig

import (
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/dfpsr-go/dfpsr/internal/derr"
)

// Settings are the process-wide rendering knobs from spec.md section 5 and 9.
type Settings struct {
	// JobCount is the number of tile worker goroutines end() spawns. 1 disables parallelism.
	JobCount int `toml:"job_count"`
	// DisableMultiThreading collapses all execution onto the calling thread
	// regardless of JobCount, matching DISABLE_MULTI_THREADING.
	DisableMultiThreading bool `toml:"disable_multi_threading"`
	// HardExitOnError mirrors DSR_HARD_EXIT_ON_ERROR.
	HardExitOnError bool `toml:"hard_exit_on_error"`
	// MinHeapAlignment is the minimum allocation size/alignment the arena rounds up to.
	MinHeapAlignment int `toml:"min_heap_alignment"`
	// SIMDAlignment is the minimum row stride alignment for images.
	SIMDAlignment int `toml:"simd_alignment"`
}

// Default returns the settings spec.md assumes when nothing is configured.
func Default() Settings {
	return Settings{
		JobCount:         12,
		MinHeapAlignment: 16,
		SIMDAlignment:    16,
	}
}

// Load reads overrides from the environment on top of Default.
func Load() Settings {
	s := Default()
	if v, ok := os.LookupEnv("DSR_JOB_COUNT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.JobCount = n
		}
	}
	if _, ok := os.LookupEnv("DISABLE_MULTI_THREADING"); ok {
		s.DisableMultiThreading = true
	}
	if _, ok := os.LookupEnv("DSR_HARD_EXIT_ON_ERROR"); ok {
		s.HardExitOnError = true
	}
	return s
}

// LoadFile layers a TOML engine-profile file on top of Load's result.
// This is an engine profile, distinct from the out-of-scope theme .ini
// format: it configures the renderer process, not widget appearance.
func LoadFile(path string) (Settings, error) {
	s := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, err
	}
	return s, nil
}

// EffectiveJobCount returns 1 when multithreading is disabled, else JobCount.
func (s Settings) EffectiveJobCount() int {
	if s.DisableMultiThreading {
		return 1
	}
	if s.JobCount < 1 {
		return 1
	}
	return s.JobCount
}

// Apply installs the process-wide side effect HardExitOnError describes:
// routing every derr.Raise call through a handler that logs and exits,
// matching DSR_HARD_EXIT_ON_ERROR (spec.md section 7's default handler
// description: "the default either throws or hard-exits with heap
// cleanup"). A caller that never calls Apply keeps derr's default
// log-and-return handler.
func (s Settings) Apply() {
	if s.HardExitOnError {
		derr.UseHardExit()
	}
}
