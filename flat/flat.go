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

// Package flat holds the resolved declaration model the compilation pipeline
// operates on: libraries, per-kind declarations, type constructors, constant
// expressions, and attributes.
package flat

import (
	"go.vidl-lang.org/vidl/version"
)

// Span locates a declaration element in its source file. Offsets come from
// the external parser.
type Span struct {
	File  string
	Start int
	End   int
}

// Library owns an ordered collection of declarations sharing one platform
// timeline. It is mutated by the compilation pipeline and frozen once
// inserted into the registry.
type Library struct {
	Name         string
	Span         Span
	Platform     version.Platform
	Availability version.Availability
	Attributes   []*Attribute

	Declarations     Declarations
	DeclarationOrder []Decl

	// Libraries this one resolved references into, in first-use order.
	deps      []*Library
	depsIndex map[*Library]struct{}
}

// Declarations groups a library's declarations by kind, each slice in
// declaration order.
type Declarations struct {
	Aliases   []*Alias
	Bits      []*Bits
	Builtins  []*Builtin
	Consts    []*Const
	Enums     []*Enum
	NewTypes  []*NewType
	Overlays  []*Overlay
	Protocols []*Protocol
	Resources []*Resource
	Services  []*Service
	Structs   []*Struct
	Tables    []*Table
	Unions    []*Union
}

// AddDependency records a resolved cross-library edge.
func (l *Library) AddDependency(dep *Library) {
	if dep == l {
		return
	}
	if l.depsIndex == nil {
		l.depsIndex = make(map[*Library]struct{})
	}
	if _, ok := l.depsIndex[dep]; ok {
		return
	}
	l.depsIndex[dep] = struct{}{}
	l.deps = append(l.deps, dep)
}

// Dependencies returns the libraries this one depends on, in first-use
// order.
func (l *Library) Dependencies() []*Library {
	return l.deps
}

// Name identifies a declaration: the owning library plus the local
// declaration name.
type Name struct {
	Library *Library
	Decl    string
}

// FullyQualifiedName renders "library.name/DeclName".
func (n Name) FullyQualifiedName() string {
	return n.Library.Name + "/" + n.Decl
}

// DeclBase carries the fields every declaration kind shares.
type DeclBase struct {
	Name         Name
	Span         Span
	Attributes   []*Attribute
	Availability version.Availability

	// Set by the type-shape step.
	TypeShape TypeShape

	// Synthesized declarations (result unions) are materialized by the
	// replacement step rather than consumed from source.
	Synthesized bool
}

func (b *DeclBase) Base() *DeclBase { return b }

// Attribute returns the named attribute, or nil.
func (b *DeclBase) Attribute(name string) *Attribute {
	for _, attr := range b.Attributes {
		if attr.Name == name {
			return attr
		}
	}
	return nil
}

// Decl is the sealed interface over all declaration kinds. Consumers
// dispatch with an exhaustive type switch over the concrete kinds; adding a
// kind without updating every switch is a defect caught by the switches'
// panicking default cases.
type Decl interface {
	Base() *DeclBase
	isDecl()
}

// TypeShape is the wire-layout footprint computed by the type-shape step.
type TypeShape struct {
	InlineSize uint32
	Alignment  uint32
}

type Builtin struct {
	DeclBase
	// Identity of the builtin, e.g. "bool", "uint32", "string".
	Identity string
	// Resource builtins (handles) taint containing layouts.
	IsResource bool
	Shape      TypeShape
}

type Bits struct {
	DeclBase
	SubtypeCtor *TypeConstructor
	Members     []*ValuedMember
}

type Enum struct {
	DeclBase
	SubtypeCtor *TypeConstructor
	Members     []*ValuedMember
}

type Const struct {
	DeclBase
	TypeCtor *TypeConstructor
	Value    Constant
}

type Struct struct {
	DeclBase
	IsResource bool
	Members    []*StructMember
}

type Table struct {
	DeclBase
	IsResource bool
	Members    []*OrdinaledMember
}

type Union struct {
	DeclBase
	IsResource bool
	Members    []*OrdinaledMember
}

type Overlay struct {
	DeclBase
	IsResource bool
	Members    []*OrdinaledMember
}

type Alias struct {
	DeclBase
	PartialTypeCtor *TypeConstructor
}

type NewType struct {
	DeclBase
	TypeCtor *TypeConstructor
}

type Resource struct {
	DeclBase
	SubtypeCtor *TypeConstructor
	Properties  []*ResourceProperty
}

type Service struct {
	DeclBase
	Members []*ServiceMember
}

type Protocol struct {
	DeclBase
	Composed []*ComposedProtocol
	Methods  []*Method
}

func (*Builtin) isDecl()  {}
func (*Bits) isDecl()     {}
func (*Enum) isDecl()     {}
func (*Const) isDecl()    {}
func (*Struct) isDecl()   {}
func (*Table) isDecl()    {}
func (*Union) isDecl()    {}
func (*Overlay) isDecl()  {}
func (*Alias) isDecl()    {}
func (*NewType) isDecl()  {}
func (*Resource) isDecl() {}
func (*Service) isDecl()  {}
func (*Protocol) isDecl() {}

// DeclKindName names a declaration kind for diagnostics.
func DeclKindName(decl Decl) string {
	switch decl.(type) {
	case *Builtin:
		return "builtin"
	case *Bits:
		return "bits"
	case *Enum:
		return "enum"
	case *Const:
		return "const"
	case *Struct:
		return "struct"
	case *Table:
		return "table"
	case *Union:
		return "union"
	case *Overlay:
		return "overlay"
	case *Alias:
		return "alias"
	case *NewType:
		return "new type"
	case *Resource:
		return "resource"
	case *Service:
		return "service"
	case *Protocol:
		return "protocol"
	default:
		panic("flat: unreachable decl kind")
	}
}

// MemberBase carries the fields every member kind shares. Members inherit
// their availability from the enclosing declaration.
type MemberBase struct {
	Name         string
	Span         Span
	Attributes   []*Attribute
	Availability version.Availability
}

// Attribute returns the named attribute, or nil.
func (b *MemberBase) Attribute(name string) *Attribute {
	for _, attr := range b.Attributes {
		if attr.Name == name {
			return attr
		}
	}
	return nil
}

// ValuedMember is a bits or enum member.
type ValuedMember struct {
	MemberBase
	Value Constant
}

type StructMember struct {
	MemberBase
	TypeCtor     *TypeConstructor
	DefaultValue Constant
}

// OrdinaledMember is a table, union, or overlay member.
type OrdinaledMember struct {
	MemberBase
	Ordinal  uint32
	TypeCtor *TypeConstructor
}

type ResourceProperty struct {
	MemberBase
	TypeCtor *TypeConstructor
}

type ServiceMember struct {
	MemberBase
	TypeCtor *TypeConstructor
}

type ComposedProtocol struct {
	Span         Span
	Reference    Reference
	Availability version.Availability
}

type Method struct {
	MemberBase
	HasRequest  bool
	Request     *TypeConstructor
	HasResponse bool
	Response    *TypeConstructor
	HasError    bool
	Error       *TypeConstructor

	// Set by the replacement step for methods with an error variant.
	ResultUnion *Union
}

// MethodWithOwner pairs a method with the protocol that declared it, which
// may be a composed protocol rather than the one being walked.
type MethodWithOwner struct {
	Method *Method
	Owner  *Protocol
}

// AllMethods returns the protocol's own methods plus those of transitively
// composed protocols, each paired with its declaring protocol. Unresolved
// compositions are skipped.
func (p *Protocol) AllMethods() []MethodWithOwner {
	var all []MethodWithOwner
	seen := map[*Protocol]struct{}{p: {}}
	var walk func(*Protocol)
	walk = func(proto *Protocol) {
		for _, composed := range proto.Composed {
			target, ok := composed.Reference.Target.(*Protocol)
			if !ok {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			walk(target)
		}
		for _, method := range proto.Methods {
			all = append(all, MethodWithOwner{Method: method, Owner: proto})
		}
	}
	walk(p)
	return all
}

// Reference is a by-name pointer at another declaration, resolved by the
// resolve step.
type Reference struct {
	// Raw is the unresolved text: "Decl" for a local or builtin name,
	// "library.name/Decl" for an external one.
	Raw  string
	Span Span

	// Target is set by the resolve step.
	Target Decl
}

// ResolvedLibrary returns the library owning the resolved target.
func (r *Reference) ResolvedLibrary() *Library {
	if r.Target == nil {
		panic("flat: reference not resolved")
	}
	return r.Target.Base().Name.Library
}

// TypeConstructor is one use of a type: a layout reference plus whatever
// parameters and constraints the use site supplies.
type TypeConstructor struct {
	Layout Reference

	// Optional parameters, mirroring the shapes a use site can take:
	// vector/array sizes, client/server ends, element types, boxes.
	SizeConstant     Constant
	ProtocolConstant Constant
	ElementType      *TypeConstructor
	BoxedType        *TypeConstructor
}

// Constant is a constant expression: a literal, a reference to a named
// constant, or a binary operator over two constants.
type Constant interface {
	isConstant()
}

type LiteralConstant struct {
	Value string
	Span  Span
}

type IdentifierConstant struct {
	Reference Reference
}

type BinaryOperatorConstant struct {
	Op    string
	Left  Constant
	Right Constant
}

func (*LiteralConstant) isConstant()        {}
func (*IdentifierConstant) isConstant()     {}
func (*BinaryOperatorConstant) isConstant() {}

// Attribute is one raw annotation: a name plus named string arguments.
// Attribute semantics are interpreted by pipeline steps and validated
// against the registry's attribute schemas.
type Attribute struct {
	Name string
	Args []AttributeArg
	Span Span
}

// Arg returns the named argument, or nil.
func (a *Attribute) Arg(name string) *AttributeArg {
	for i := range a.Args {
		if a.Args[i].Name == name {
			return &a.Args[i]
		}
	}
	return nil
}

type AttributeArg struct {
	Name  string
	Value string
	Span  Span
}
