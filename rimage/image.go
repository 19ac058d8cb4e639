// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rimage

import (
	"unsafe"

	"github.com/dfpsr-go/dfpsr/buffer"
	"github.com/dfpsr-go/dfpsr/heap"
	"github.com/dfpsr-go/dfpsr/internal/derr"
	"github.com/dfpsr-go/dfpsr/internal/engineconfig"
	"github.com/dfpsr-go/dfpsr/safeptr"
)

// Pixel is the closed set of element types spec.md section 3 names for
// Image<T>: u8, u16, f32, and a packed 32-bit RGBA word.
type Pixel interface {
	~uint8 | ~uint16 | ~float32 | ~uint32
}

// Image[T] is an aligned view over a buffer: width/height/stride plus,
// for 32-bit pixels, a pack order (spec.md section 3, "Image<T>").
// Sub-images share the Buffer; Offset moves, Stride never changes.
type Image[T Pixel] struct {
	buf       buffer.Buffer
	Width     int32
	Height    int32
	Stride    int32 // bytes per row, including padding
	Offset    int32 // byte offset of row 0 within buf
	PackOrder PackOrder
}

func elemSize[T Pixel]() int32 {
	var zero T
	return int32(unsafe.Sizeof(zero))
}

func roundUpAlign(v, align int32) int32 {
	if align <= 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// Create allocates a new aligned image. width==0 or height==0 returns an
// empty, non-error handle (spec.md boundary behavior).
func Create[T Pixel](arena *heap.Arena, width, height int32, order PackOrder) (Image[T], error) {
	if width <= 0 || height <= 0 {
		return Image[T]{Width: max0(width), Height: max0(height), PackOrder: order}, nil
	}
	stride := roundUpAlign(width*elemSize[T](), int32(engineconfig.Default().SIMDAlignment))
	size := int(stride) * int(height)
	buf, err := buffer.Create(arena, size)
	if err != nil {
		return Image[T]{}, err
	}
	return Image[T]{buf: buf, Width: width, Height: height, Stride: stride, PackOrder: order}, nil
}

func max0(v int32) int32 {
	if v < 0 {
		return 0
	}
	return v
}

// IsNull reports whether the image owns no allocation (zero width or height).
func (img Image[T]) IsNull() bool {
	return img.Width <= 0 || img.Height <= 0
}

// IsTexture reports whether the image's dimensions are both powers of
// two, required by texture.FromImage.
func (img Image[T]) IsTexture() bool {
	return isPow2(img.Width) && isPow2(img.Height)
}

func isPow2(v int32) bool {
	return v > 0 && v&(v-1) == 0
}

// SubImage returns a view sharing this image's allocation at a moved
// offset — never copies, and Stride is unchanged (spec.md invariant).
func (img Image[T]) SubImage(left, top, width, height int32) (Image[T], error) {
	if left < 0 || top < 0 || width < 0 || height < 0 || left+width > img.Width || top+height > img.Height {
		return Image[T]{}, derr.Newf(derr.OutOfBounds, "sub-image (%d,%d,%d,%d) outside parent (%d,%d)", left, top, width, height, img.Width, img.Height).WithRegion("rimage.SubImage")
	}
	sub := img
	sub.Width = width
	sub.Height = height
	sub.Offset = img.Offset + top*img.Stride + left*elemSize[T]()
	sub.buf = img.buf.Clone()
	return sub, nil
}

// rowPointer returns a bound-checked view over one full row of the image.
func (img Image[T]) rowPointer(y int32) (safeptr.Pointer[byte], error) {
	if y < 0 || y >= img.Height {
		return safeptr.Pointer[byte]{}, derr.Newf(derr.OutOfBounds, "row %d outside [0,%d)", y, img.Height).WithRegion("rimage.rowPointer")
	}
	base := img.buf.Pointer()
	return base.Slice("row", int(img.Offset+y*img.Stride), int(img.Width)*int(elemSize[T]()))
}

// At reads the pixel at (x,y).
func (img Image[T]) At(x, y int32) (T, error) {
	row, err := img.rowPointer(y)
	if err != nil {
		var zero T
		return zero, err
	}
	if x < 0 || x >= img.Width {
		var zero T
		return zero, derr.Newf(derr.OutOfBounds, "column %d outside [0,%d)", x, img.Width).WithRegion("rimage.At")
	}
	return readElem[T](row, int(x)*int(elemSize[T]()))
}

// Set writes the pixel at (x,y).
func (img Image[T]) Set(x, y int32, v T) error {
	row, err := img.rowPointer(y)
	if err != nil {
		return err
	}
	if x < 0 || x >= img.Width {
		return derr.Newf(derr.OutOfBounds, "column %d outside [0,%d)", x, img.Width).WithRegion("rimage.Set")
	}
	return writeElem[T](row, int(x)*int(elemSize[T]()), v)
}

// Buffer exposes the backing buffer for texture construction and debug conversion.
func (img Image[T]) Buffer() buffer.Buffer { return img.buf }

// Release drops this image's reference to its backing allocation.
func (img Image[T]) Release() { img.buf.Release() }
