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
	"go.vidl-lang.org/vidl/flat"
)

// calcDependencies walks the given declarations and collects the library of
// every resolved reference, including the declarations' own. Protocols are
// walked through their composed methods: each method counts its declaring
// protocol's library, a composed protocol's library counts even when the
// protocol has no methods, and method payloads referencing a struct pull in
// the libraries of that struct's own members, because consumers flatten
// struct payloads into method signatures.
func calcDependencies(roots []flat.Decl) map[*flat.Library]struct{} {
	visitor := &dependencyVisitor{deps: make(map[*flat.Library]struct{})}
	for _, decl := range roots {
		visitor.visitDecl(decl)
	}
	return visitor.deps
}

type dependencyVisitor struct {
	deps map[*flat.Library]struct{}
}

func (v *dependencyVisitor) visitDecl(decl flat.Decl) {
	v.deps[decl.Base().Name.Library] = struct{}{}
	switch decl := decl.(type) {
	case *flat.Builtin:
	case *flat.Bits:
		v.visitCtor(decl.SubtypeCtor)
		for _, member := range decl.Members {
			v.visitConstant(member.Value)
		}
	case *flat.Enum:
		v.visitCtor(decl.SubtypeCtor)
		for _, member := range decl.Members {
			v.visitConstant(member.Value)
		}
	case *flat.Const:
		v.visitCtor(decl.TypeCtor)
		v.visitConstant(decl.Value)
	case *flat.Struct:
		for _, member := range decl.Members {
			v.visitCtor(member.TypeCtor)
			v.visitConstant(member.DefaultValue)
		}
	case *flat.Table:
		for _, member := range decl.Members {
			v.visitCtor(member.TypeCtor)
		}
	case *flat.Union:
		for _, member := range decl.Members {
			v.visitCtor(member.TypeCtor)
		}
	case *flat.Overlay:
		for _, member := range decl.Members {
			v.visitCtor(member.TypeCtor)
		}
	case *flat.Alias:
		v.visitCtor(decl.PartialTypeCtor)
	case *flat.NewType:
		v.visitCtor(decl.TypeCtor)
	case *flat.Resource:
		v.visitCtor(decl.SubtypeCtor)
		for _, property := range decl.Properties {
			v.visitCtor(property.TypeCtor)
		}
	case *flat.Service:
		for _, member := range decl.Members {
			v.visitCtor(member.TypeCtor)
		}
	case *flat.Protocol:
		for _, composed := range decl.Composed {
			v.visitReference(&composed.Reference)
		}
		for _, method := range decl.AllMethods() {
			v.deps[method.Owner.Base().Name.Library] = struct{}{}
			v.visitPayload(method.Method.Request)
			v.visitPayload(method.Method.Response)
			v.visitPayload(method.Method.Error)
			if method.Method.ResultUnion != nil {
				for _, member := range method.Method.ResultUnion.Members {
					v.visitPayload(member.TypeCtor)
				}
			}
		}
	default:
		panic("compiler: unreachable decl kind")
	}
}

// visitPayload records a method payload's libraries and, when the payload
// is a struct, descends one level into the struct's own members.
func (v *dependencyVisitor) visitPayload(ctor *flat.TypeConstructor) {
	if ctor == nil {
		return
	}
	v.visitCtor(ctor)
	if payload, ok := ctor.Layout.Target.(*flat.Struct); ok {
		for _, member := range payload.Members {
			v.visitCtor(member.TypeCtor)
		}
	}
}

func (v *dependencyVisitor) visitCtor(ctor *flat.TypeConstructor) {
	if ctor == nil {
		return
	}
	v.visitReference(&ctor.Layout)
	v.visitConstant(ctor.SizeConstant)
	v.visitConstant(ctor.ProtocolConstant)
	v.visitCtor(ctor.ElementType)
	v.visitCtor(ctor.BoxedType)
}

func (v *dependencyVisitor) visitConstant(constant flat.Constant) {
	switch constant := constant.(type) {
	case nil:
	case *flat.LiteralConstant:
	case *flat.IdentifierConstant:
		v.visitReference(&constant.Reference)
	case *flat.BinaryOperatorConstant:
		v.visitConstant(constant.Left)
		v.visitConstant(constant.Right)
	default:
		panic("compiler: unreachable constant kind")
	}
}

func (v *dependencyVisitor) visitReference(ref *flat.Reference) {
	if ref.Target == nil {
		return
	}
	v.deps[ref.ResolvedLibrary()] = struct{}{}
}
