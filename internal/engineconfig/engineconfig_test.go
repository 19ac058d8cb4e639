// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engineconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()
	assert.Equal(t, 12, s.JobCount)
	assert.Equal(t, 16, s.MinHeapAlignment)
	assert.Equal(t, 16, s.SIMDAlignment)
	assert.False(t, s.DisableMultiThreading)
}

func TestEffectiveJobCountHonorsDisableMultiThreading(t *testing.T) {
	s := Settings{JobCount: 8, DisableMultiThreading: true}
	assert.Equal(t, 1, s.EffectiveJobCount())
}

func TestEffectiveJobCountFloorsAtOne(t *testing.T) {
	s := Settings{JobCount: 0}
	assert.Equal(t, 1, s.EffectiveJobCount())
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("DSR_JOB_COUNT", "4")
	t.Setenv("DISABLE_MULTI_THREADING", "1")
	s := Load()
	assert.Equal(t, 4, s.JobCount)
	assert.True(t, s.DisableMultiThreading)
	assert.Equal(t, 1, s.EffectiveJobCount())
}

func TestApplyIsANoOpWhenHardExitOnErrorIsUnset(t *testing.T) {
	Settings{}.Apply() // must not install the hard-exit handler or panic
}
