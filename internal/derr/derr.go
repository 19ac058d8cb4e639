// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package derr defines the closed set of error kinds the rendering core
// raises (spec.md section 7) and the globally configurable message
// handler that dispatches them, on top of the generic log/panic helpers
// in github.com/dfpsr-go/dfpsr/base/errors (kept from the teacher).
package derr

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dfpsr-go/dfpsr/base/errors"
)

// Kind is the closed set of error categories the rendering core can raise.
type Kind int

const (
	// OutOfBounds is a safe pointer access outside its permitted region.
	OutOfBounds Kind = iota
	// StaleIdentity is a safe pointer whose allocation identity no longer matches its header.
	StaleIdentity
	// WrongThread is a safe pointer accessed from a thread other than its owner.
	WrongThread
	// NullHandle is an operation that expects a non-null handle receiving an empty one.
	NullHandle
	// WrongState is a renderer lifecycle operation invoked out of order.
	WrongState
	// AllocationFailed is the arena failing to satisfy a requested size.
	AllocationFailed
	// ParseError is a malformed model, INI, or image file.
	ParseError
	// UnsupportedFormat is an image file format that is not recognized.
	UnsupportedFormat
	// SizeMismatch is color and depth buffers disagreeing on dimensions.
	SizeMismatch
)

func (k Kind) String() string {
	switch k {
	case OutOfBounds:
		return "OutOfBounds"
	case StaleIdentity:
		return "StaleIdentity"
	case WrongThread:
		return "WrongThread"
	case NullHandle:
		return "NullHandle"
	case WrongState:
		return "WrongState"
	case AllocationFailed:
		return "AllocationFailed"
	case ParseError:
		return "ParseError"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case SizeMismatch:
		return "SizeMismatch"
	default:
		return "Unknown"
	}
}

// Error is a formatted rendering-core error carrying region metadata,
// matching the SafePointer requirement to report the permitted range
// and identity mismatch on a violation.
type Error struct {
	Kind    Kind
	Message string
	// Region is optional metadata describing the memory region involved,
	// e.g. "[32,48) of allocation #4821".
	Region string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) WithRegion(region string) *Error {
	e.Region = region
	return e
}

func (e *Error) Error() string {
	if e.Region == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Region)
}

// Handler receives every error passed to Raise. The default logs and
// returns it; UseHardExit replaces it with a handler that logs and
// exits, matching DSR_HARD_EXIT_ON_ERROR from spec.md's error handling
// design.
var Handler = func(err *Error) error {
	return errors.Log(err)
}

// UseHardExit installs a Handler that logs the error and terminates the
// process, as the source does when DSR_HARD_EXIT_ON_ERROR is set.
func UseHardExit() {
	Handler = func(err *Error) error {
		slog.Error(err.Error() + " | " + errors.CallerInfo())
		os.Exit(1)
		return err
	}
}

// Raise routes err through the configured Handler.
func Raise(err *Error) error {
	if err == nil {
		return nil
	}
	return Handler(err)
}
