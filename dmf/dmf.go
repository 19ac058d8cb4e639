// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dmf parses the DMF1 model text format described in spec.md
// section 6: a small state machine over four token kinds
// (`<Namespace>`, `identifier`, `[index]`, `(value)`) that feeds a
// model.Model. Grounded on
// original_source/Source/DFPSR/render/model/format/dmf1.cpp's
// loadNative_DMF1/setProperty/changeNamespace/convertFromDMF1, adapted
// from its two-state ParserState_WaitForStatement /
// ParserState_WaitForIndexOrProperty machine (the source's third state,
// ParserState_WaitForProperty, is unreachable in its own readToken and
// is dropped here) and from its C-string scanning loop into a single
// byte-indexed Go loop over the post-header substring.
package dmf

import (
	"math"
	"strconv"
	"strings"

	"github.com/dfpsr-go/dfpsr/geom"
	"github.com/dfpsr-go/dfpsr/internal/derr"
	"github.com/dfpsr-go/dfpsr/model"
	"github.com/dfpsr-go/dfpsr/raster"
)

// positionDedupThreshold matches the source's addPointIfNeeded call in
// convertFromDMF1: "const float threshold = 0.00001f".
const positionDedupThreshold = 0.00001

type namespace int

const (
	nsMain namespace = iota
	nsPart
	nsTriangle
	nsUnhandled
)

type tokenState int

const (
	waitForStatement tokenState = iota
	waitForValue
)

type vertexDMF struct {
	pos          geom.Vec3
	uv1, uv2     geom.Vec2
	color        geom.Vec4
}

func newVertexDMF() vertexDMF {
	return vertexDMF{color: geom.Vec4{X: 255, Y: 255, Z: 255, W: 255}}
}

type triangleDMF struct {
	vertices [3]vertexDMF
}

func newTriangleDMF() triangleDMF {
	return triangleDMF{vertices: [3]vertexDMF{newVertexDMF(), newVertexDMF(), newVertexDMF()}}
}

type partDMF struct {
	name       string
	textures   [16]string
	shaderZero string
	minDetail  int
	maxDetail  int
	triangles  []triangleDMF
}

func newPartDMF() *partDMF {
	return &partDMF{minDetail: 0, maxDetail: 2}
}

// builder accumulates the native DMF1 syntax tree while scanning, the
// same two-pass split (scan, then convert) the source uses between
// loadNative_DMF1 and convertFromDMF1.
type builder struct {
	filter        raster.Filter
	parts         []*partDMF
	ns            namespace
	state         tokenState
	propertyName  string
	propertyIndex int
}

func (b *builder) lastPart() *partDMF {
	if len(b.parts) == 0 {
		return nil
	}
	return b.parts[len(b.parts)-1]
}

// Parse parses a DMF1 document into a model.Model, keeping only parts
// whose [minDetailLevel, maxDetailLevel] range contains detailLevel
// (spec.md section 6's MinDetailLevel/MaxDetailLevel properties).
// Textures are recorded by name on the resulting Part.TextureNames for
// a caller's resource pool to resolve (spec.md section 8 scenario S6).
func Parse(fileContent string, detailLevel int) (*model.Model, error) {
	const header = "DMF1"
	if len(fileContent) < len(header) || fileContent[:len(header)] != header {
		return nil, derr.New(derr.ParseError, "DMF1 file must start with the literal bytes \"DMF1\"").WithRegion("dmf.Parse")
	}
	b := &builder{filter: raster.Solid}
	if err := b.scan(fileContent[len(header):]); err != nil {
		return nil, err
	}
	return b.build(detailLevel), nil
}

// scan replays the source's single-pass character scanner: tokenStart
// marks the first byte of the pending token, firstChar remembers which
// bracket kind opened it (0 when the pending token is a bare
// whitespace-delimited identifier).
func (b *builder) scan(content string) error {
	tokenStart := 0
	var firstChar byte
	n := len(content)
	i := 0
	for ; i < n; i++ {
		c := content[i]
		switch {
		case firstChar == 0 && isSeparator(c):
			if err := b.readToken(content, tokenStart, i-1); err != nil {
				return err
			}
			tokenStart = i + 1
		case c == '<' || c == '(' || c == '[':
			if err := b.readToken(content, tokenStart, i-1); err != nil {
				return err
			}
			tokenStart = i
			firstChar = c
		case firstChar == '<' && c == '>', firstChar == '(' && c == ')', firstChar == '[' && c == ']':
			if err := b.readToken(content, tokenStart, i); err != nil {
				return err
			}
			tokenStart = i + 1
			firstChar = 0
		}
	}
	return b.readToken(content, tokenStart, n-1)
}

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// readToken dispatches one closed token spanning content[start:end+1]
// (end inclusive, matching the source's readToken signature). A token
// with no characters (end < start) is the gap left between two adjacent
// delimiters and is silently skipped, same as the source.
func (b *builder) readToken(content string, start, end int) error {
	if end < start {
		return nil
	}
	tok := content[start : end+1]
	switch {
	case tok[0] == '(' && tok[len(tok)-1] == ')':
		if b.state != waitForValue {
			return derr.New(derr.ParseError, "unexpected property value \""+tok+"\" outside a property").WithRegion("dmf.Parse")
		}
		b.setProperty(tok[1 : len(tok)-1])
		b.state = waitForStatement
		b.propertyIndex = 0
	case tok[0] == '[' && tok[len(tok)-1] == ']':
		if b.state != waitForValue {
			return derr.New(derr.ParseError, "unexpected index \""+tok+"\" outside a property").WithRegion("dmf.Parse")
		}
		index, err := strconv.Atoi(strings.TrimSpace(tok[1 : len(tok)-1]))
		if err != nil {
			return derr.New(derr.ParseError, "malformed property index \""+tok+"\"").WithRegion("dmf.Parse")
		}
		b.propertyIndex = index
	case tok[0] == '<' && tok[len(tok)-1] == '>':
		if b.state != waitForStatement {
			return derr.New(derr.ParseError, "namespace change before the previous statement finished").WithRegion("dmf.Parse")
		}
		b.changeNamespace(tok[1 : len(tok)-1])
	default:
		if b.state == waitForStatement {
			b.propertyName = tok
			b.propertyIndex = 0
			b.state = waitForValue
		}
	}
	return nil
}

func (b *builder) changeNamespace(name string) {
	switch {
	case strings.EqualFold(name, "Part"):
		b.parts = append(b.parts, newPartDMF())
		b.ns = nsPart
	case strings.EqualFold(name, "Triangle"):
		if b.ns != nsPart && b.ns != nsTriangle {
			return // triangles outside a part are ignored, matching the source's warning-only behavior.
		}
		if part := b.lastPart(); part != nil {
			part.triangles = append(part.triangles, newTriangleDMF())
		}
		b.ns = nsTriangle
	default:
		b.ns = nsUnhandled // Bone/Shape/Point and anything else: recognized by the source, out of this grammar's scope.
	}
}

func (b *builder) setProperty(content string) {
	name, index := b.propertyName, b.propertyIndex
	switch b.ns {
	case nsMain:
		if strings.EqualFold(name, "FilterType") {
			if strings.EqualFold(content, "Alpha") {
				b.filter = raster.Alpha
			} else {
				b.filter = raster.Solid
			}
		}
	case nsPart:
		b.setPartProperty(name, index, content)
	case nsTriangle:
		b.setTriangleProperty(name, index, content)
	}
}

func (b *builder) setPartProperty(name string, index int, content string) {
	part := b.lastPart()
	if part == nil {
		return
	}
	switch {
	case strings.EqualFold(name, "Name"):
		part.name = content
	case strings.EqualFold(name, "Texture"):
		if index >= 0 && index < len(part.textures) {
			part.textures[index] = content
		}
	case strings.EqualFold(name, "Shader"):
		if index == 0 {
			part.shaderZero = content
		}
	case strings.EqualFold(name, "MinDetailLevel"):
		part.minDetail = roundToInt(content)
	case strings.EqualFold(name, "MaxDetailLevel"):
		part.maxDetail = roundToInt(content)
	}
}

func (b *builder) setTriangleProperty(name string, index int, content string) {
	part := b.lastPart()
	if part == nil || len(part.triangles) == 0 || index < 0 || index > 2 {
		return
	}
	v := &part.triangles[len(part.triangles)-1].vertices[index]
	value := parseFloat(content)
	switch {
	case strings.EqualFold(name, "X"):
		v.pos.X = value
	case strings.EqualFold(name, "Y"):
		v.pos.Y = value
	case strings.EqualFold(name, "Z"):
		v.pos.Z = value
	case strings.EqualFold(name, "CR"):
		v.color.X = value
	case strings.EqualFold(name, "CG"):
		v.color.Y = value
	case strings.EqualFold(name, "CB"):
		v.color.Z = value
	case strings.EqualFold(name, "CA"):
		v.color.W = value
	case strings.EqualFold(name, "U1"):
		v.uv1.X = value
	case strings.EqualFold(name, "V1"):
		v.uv1.Y = value
	case strings.EqualFold(name, "U2"):
		v.uv2.X = value
	case strings.EqualFold(name, "V2"):
		v.uv2.Y = value
	}
}

func parseFloat(content string) float32 {
	v, err := strconv.ParseFloat(strings.TrimSpace(content), 32)
	if err != nil {
		return 0
	}
	return float32(v)
}

func roundToInt(content string) int {
	return int(math.Round(float64(parseFloat(content))))
}

// build converts the native syntax tree into a model.Model the way
// convertFromDMF1 does, minus the resource-pool texture lookup (the
// caller resolves Part.TextureNames itself).
func (b *builder) build(detailLevel int) *model.Model {
	m := model.New()
	for _, pd := range b.parts {
		if detailLevel < pd.minDetail || detailLevel > pd.maxDetail {
			continue
		}
		part := m.AddPart(pd.name)
		part.Filter = b.filter
		part.MinDetailLevel = uint32(pd.minDetail)
		part.MaxDetailLevel = uint32(pd.maxDetail)
		switch {
		case strings.EqualFold(pd.shaderZero, "M_Diffuse_1Tex"):
			part.ShaderKind = model.ShaderDiffuse1Tex
			part.TextureNames = []string{pd.textures[0]}
		case strings.EqualFold(pd.shaderZero, "M_Diffuse_2Tex"):
			part.ShaderKind = model.ShaderDiffuse2Tex
			part.TextureNames = []string{pd.textures[0], pd.textures[1]}
		default:
			part.ShaderKind = model.ShaderFlatColor
		}
		for _, tri := range pd.triangles {
			var indices [3]int
			var uv1, uv2 [3]geom.Vec2
			var colors [3]geom.Vec4
			for i := 0; i < 3; i++ {
				v := tri.vertices[i]
				indices[i] = m.AddPointDeduplicated(v.pos, positionDedupThreshold)
				uv1[i], uv2[i], colors[i] = v.uv1, v.uv2, v.color
			}
			part.AddTriangle(indices, uv1, uv2, colors)
		}
	}
	return m
}
