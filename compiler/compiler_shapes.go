// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package compiler

import (
	"strconv"

	"go.vidl-lang.org/vidl/flat"
)

// Envelope-based layouts (tables, unions, overlays) store their members out
// of line behind a fixed-size header.
var envelopeShape = flat.TypeShape{InlineSize: 16, Alignment: 8}

// computeTypeShapes fills in the wire-layout footprint of every data
// declaration. Inline nesting must be acyclic; cycles are reported once per
// offending declaration.
func (c *Compiler) computeTypeShapes() {
	shaper := &typeShaper{
		compiler: c,
		done:     make(map[flat.Decl]flat.TypeShape),
		visiting: make(map[flat.Decl]struct{}),
	}
	for _, decl := range c.library.DeclarationOrder {
		shape := shaper.shapeOf(decl)
		decl.Base().TypeShape = shape
	}
}

type typeShaper struct {
	compiler *Compiler
	done     map[flat.Decl]flat.TypeShape
	visiting map[flat.Decl]struct{}
}

func (s *typeShaper) shapeOf(decl flat.Decl) flat.TypeShape {
	if shape, ok := s.done[decl]; ok {
		return shape
	}
	if _, cycle := s.visiting[decl]; cycle {
		base := decl.Base()
		s.compiler.reporter.Fail(errTypeCycle(base.Name.Decl, base.Span))
		return flat.TypeShape{InlineSize: 0, Alignment: 1}
	}
	s.visiting[decl] = struct{}{}
	shape := s.computeShape(decl)
	delete(s.visiting, decl)
	s.done[decl] = shape
	return shape
}

func (s *typeShaper) computeShape(decl flat.Decl) flat.TypeShape {
	switch decl := decl.(type) {
	case *flat.Builtin:
		return decl.Shape
	case *flat.Bits:
		return s.subtypeShape(decl.SubtypeCtor)
	case *flat.Enum:
		return s.subtypeShape(decl.SubtypeCtor)
	case *flat.Struct:
		return s.structShape(decl)
	case *flat.Table, *flat.Union, *flat.Overlay:
		return envelopeShape
	case *flat.Alias:
		return s.ctorShape(decl.PartialTypeCtor)
	case *flat.NewType:
		return s.ctorShape(decl.TypeCtor)
	case *flat.Const, *flat.Resource, *flat.Service, *flat.Protocol:
		// Not data layouts; no wire footprint of their own.
		return flat.TypeShape{}
	default:
		panic("compiler: unreachable decl kind")
	}
}

// Bits and enums without an explicit subtype default to uint32.
func (s *typeShaper) subtypeShape(ctor *flat.TypeConstructor) flat.TypeShape {
	if ctor == nil {
		return flat.TypeShape{InlineSize: 4, Alignment: 4}
	}
	return s.ctorShape(ctor)
}

func (s *typeShaper) structShape(decl *flat.Struct) flat.TypeShape {
	shape := flat.TypeShape{InlineSize: 0, Alignment: 1}
	for _, member := range decl.Members {
		memberShape := s.ctorShape(member.TypeCtor)
		shape.InlineSize = alignUp(shape.InlineSize, memberShape.Alignment)
		shape.InlineSize += memberShape.InlineSize
		if memberShape.Alignment > shape.Alignment {
			shape.Alignment = memberShape.Alignment
		}
	}
	if shape.InlineSize == 0 {
		// An empty struct still occupies one byte.
		return flat.TypeShape{InlineSize: 1, Alignment: 1}
	}
	shape.InlineSize = alignUp(shape.InlineSize, shape.Alignment)
	return shape
}

func (s *typeShaper) ctorShape(ctor *flat.TypeConstructor) flat.TypeShape {
	if ctor == nil {
		return flat.TypeShape{InlineSize: 0, Alignment: 1}
	}
	target := ctor.Layout.Target
	if target == nil {
		// Resolution failed earlier; the pipeline never reaches this step.
		panic("compiler: type shape of unresolved reference")
	}
	if builtin, ok := target.(*flat.Builtin); ok {
		switch builtin.Identity {
		case "array":
			return s.arrayShape(ctor)
		case "box":
			return builtin.Shape
		default:
			return builtin.Shape
		}
	}
	return s.shapeOf(target)
}

func (s *typeShaper) arrayShape(ctor *flat.TypeConstructor) flat.TypeShape {
	if ctor.SizeConstant == nil {
		s.compiler.reporter.Fail(errMissingSizeBound(ctor.Layout.Span))
		return flat.TypeShape{InlineSize: 0, Alignment: 1}
	}
	count, ok := resolveSizeBound(ctor.SizeConstant)
	if !ok {
		span := ctor.Layout.Span
		if literal, isLiteral := ctor.SizeConstant.(*flat.LiteralConstant); isLiteral {
			span = literal.Span
		}
		s.compiler.reporter.Fail(errCouldNotParseSizeBound(sizeBoundText(ctor.SizeConstant), span))
		return flat.TypeShape{InlineSize: 0, Alignment: 1}
	}
	element := s.ctorShape(ctor.ElementType)
	return flat.TypeShape{
		InlineSize: element.InlineSize * count,
		Alignment:  element.Alignment,
	}
}

// resolveSizeBound evaluates an array size: a literal, or an identifier
// naming a const with a literal value.
func resolveSizeBound(constant flat.Constant) (uint32, bool) {
	switch constant := constant.(type) {
	case *flat.LiteralConstant:
		value, err := strconv.ParseUint(constant.Value, 0, 32)
		if err != nil || value == 0 {
			return 0, false
		}
		return uint32(value), true
	case *flat.IdentifierConstant:
		target, ok := constant.Reference.Target.(*flat.Const)
		if !ok {
			return 0, false
		}
		if literal, isLiteral := target.Value.(*flat.LiteralConstant); isLiteral {
			return resolveSizeBound(literal)
		}
		return 0, false
	default:
		return 0, false
	}
}

func sizeBoundText(constant flat.Constant) string {
	switch constant := constant.(type) {
	case *flat.LiteralConstant:
		return constant.Value
	case *flat.IdentifierConstant:
		return constant.Reference.Raw
	default:
		return "<expression>"
	}
}

func alignUp(size, alignment uint32) uint32 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}
