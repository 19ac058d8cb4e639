// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package derr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormattingWithoutRegion(t *testing.T) {
	err := New(ParseError, "malformed header")
	assert.Equal(t, "ParseError: malformed header", err.Error())
}

func TestErrorFormattingWithRegion(t *testing.T) {
	err := New(SizeMismatch, "dimensions differ").WithRegion("renderer.begin")
	assert.Equal(t, "SizeMismatch: dimensions differ (renderer.begin)", err.Error())
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(OutOfBounds, "index %d out of [0,%d)", 5, 3)
	assert.Equal(t, "index 5 out of [0,3)", err.Message)
}

func TestRaiseReturnsNilForNilError(t *testing.T) {
	assert.NoError(t, Raise(nil))
}

func TestRaiseRoutesThroughHandler(t *testing.T) {
	original := Handler
	defer func() { Handler = original }()

	var seen *Error
	Handler = func(err *Error) error {
		seen = err
		return err
	}

	err := New(WrongState, "called out of order")
	got := Raise(err)
	assert.Equal(t, err, got)
	assert.Equal(t, err, seen)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "WrongState", WrongState.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}
