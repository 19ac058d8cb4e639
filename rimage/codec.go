// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rimage

import (
	"bytes"
	"image"
	"image/color"

	"golang.org/x/image/bmp"

	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/internal/derr"
)

// DecodeBMP decodes a BMP byte stream into a freshly allocated RGBA
// image in arena, the image-file loading spec.md section 7 names
// UnsupportedFormat for ("image file format not recognized").
func DecodeBMP(arena *heap.Arena, data []byte) (Image[uint32], error) {
	src, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return Image[uint32]{}, derr.New(derr.UnsupportedFormat, "not a recognizable BMP file: "+err.Error()).WithRegion("rimage.DecodeBMP")
	}
	bounds := src.Bounds()
	w, h := int32(bounds.Dx()), int32(bounds.Dy())
	out, err := Create[uint32](arena, w, h, RGBA)
	if err != nil {
		return Image[uint32]{}, err
	}
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			r, g, b, a := src.At(bounds.Min.X+int(x), bounds.Min.Y+int(y)).RGBA()
			px := RGBA.Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
			if err := out.Set(x, y, px); err != nil {
				return Image[uint32]{}, err
			}
		}
	}
	return out, nil
}

// EncodeBMP writes img out as a BMP byte stream, converting from img's
// own PackOrder into the standard library's color.RGBA regardless of
// how img is packed in memory.
func EncodeBMP(img Image[uint32]) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, int(img.Width), int(img.Height)))
	for y := int32(0); y < img.Height; y++ {
		for x := int32(0); x < img.Width; x++ {
			px, err := img.At(x, y)
			if err != nil {
				return nil, err
			}
			r, g, b, a := img.PackOrder.Unpack(px)
			dst.SetRGBA(int(x), int(y), color.RGBA{R: r, G: g, B: b, A: a})
		}
	}
	var out bytes.Buffer
	if err := bmp.Encode(&out, dst); err != nil {
		return nil, derr.New(derr.UnsupportedFormat, "failed to encode BMP: "+err.Error()).WithRegion("rimage.EncodeBMP")
	}
	return out.Bytes(), nil
}
