// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package soundfile implements spec.md section 8's round-trip law
// `encode_riff_wave(decode_riff_wave(buf)) ≈ buf` on top of
// github.com/faiface/beep/wav (a teacher dependency declared in
// go.mod but otherwise unused in the reference pack). Grounded on
// original_source/Source/DFPSR/api/soundAPI.cpp's
// decode_riff_wave/encode_riff_wave pair: load into an in-memory PCM
// buffer, write the same buffer back out. Nothing else of the audio
// subsystem (no playback, no mixing) is in scope.
package soundfile

import (
	"bytes"
	"errors"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/dfpsr-go/dfpsr/internal/derr"
)

// Clip is a fully decoded PCM buffer: every sample pulled out of the
// RIFF/WAVE stream plus the format it was encoded with.
type Clip struct {
	Format  beep.Format
	Samples [][2]float64
}

// DecodeRIFFWave reads a RIFF/WAVE byte stream into an in-memory Clip.
func DecodeRIFFWave(data []byte) (Clip, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return Clip{}, derr.New(derr.ParseError, "malformed RIFF/WAVE stream: "+err.Error()).WithRegion("soundfile.DecodeRIFFWave")
	}
	defer streamer.Close()

	samples := make([][2]float64, 0, streamer.Len())
	var chunk [512][2]float64
	for {
		n, ok := streamer.Stream(chunk[:])
		samples = append(samples, chunk[:n]...)
		if !ok {
			break
		}
	}
	return Clip{Format: format, Samples: samples}, nil
}

// EncodeRIFFWave writes c back out as a RIFF/WAVE byte stream.
func EncodeRIFFWave(c Clip) ([]byte, error) {
	var out memWriteSeeker
	streamer := &sliceStreamer{samples: c.Samples}
	if err := wav.Encode(&out, streamer, c.Format); err != nil {
		return nil, derr.New(derr.ParseError, "failed to encode RIFF/WAVE stream: "+err.Error()).WithRegion("soundfile.EncodeRIFFWave")
	}
	return out.buf, nil
}

// sliceStreamer replays a fixed slice of samples once, the minimal
// beep.Streamer wav.Encode needs to serialize a decoded Clip back out.
type sliceStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *sliceStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n = copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

// memWriteSeeker is a growable in-memory io.WriteSeeker. wav.Encode
// requires random-access writes to patch the RIFF header's size field
// after the data is known, which bytes.Buffer cannot provide.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = m.pos + int(offset)
	case io.SeekEnd:
		newPos = len(m.buf) + int(offset)
	default:
		return 0, errors.New("soundfile: invalid seek whence")
	}
	if newPos < 0 {
		return 0, errors.New("soundfile: negative seek position")
	}
	m.pos = newPos
	return int64(newPos), nil
}
