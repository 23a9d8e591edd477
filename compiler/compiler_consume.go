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
	"strings"

	"go.vidl-lang.org/vidl/ast"
	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/version"
)

func (c *Compiler) consumeFile(file *ast.File) {
	if !isValidLibraryName(file.Library) {
		c.reporter.Fail(errInvalidLibraryName(file.Library, flat.Span{}))
		return
	}
	if c.library.Name == "" {
		c.library.Name = file.Library
	} else if c.library.Name != file.Library {
		c.reporter.Fail(errLibraryNameMismatch(c.library.Name, file.Library, flat.Span{}))
		return
	}
	c.library.Attributes = append(c.library.Attributes, consumeAttributes(file.Attributes)...)
	for i := range file.Decls {
		c.consumeDecl(&file.Decls[i])
	}
}

// Library names are dot-separated platform-style identifiers; the first
// component doubles as the default platform name.
func isValidLibraryName(name string) bool {
	for _, component := range strings.Split(name, ".") {
		if _, ok := version.ParsePlatform(component); !ok {
			return false
		}
	}
	return true
}

func (c *Compiler) consumeDecl(decl *ast.Decl) {
	base := flat.DeclBase{
		Name:       flat.Name{Library: c.library, Decl: decl.Name},
		Span:       consumeSpan(decl.Span),
		Attributes: consumeAttributes(decl.Attributes),
	}
	switch decl.Kind {
	case "alias":
		c.addDecl(&flat.Alias{
			DeclBase:        base,
			PartialTypeCtor: consumeType(decl.Type),
		})
	case "bits":
		c.addDecl(&flat.Bits{
			DeclBase:    base,
			SubtypeCtor: consumeType(decl.Subtype),
			Members:     consumeValuedMembers(decl.Members),
		})
	case "const":
		c.addDecl(&flat.Const{
			DeclBase: base,
			TypeCtor: consumeType(decl.Type),
			Value:    consumeValue(decl.Value),
		})
	case "enum":
		c.addDecl(&flat.Enum{
			DeclBase:    base,
			SubtypeCtor: consumeType(decl.Subtype),
			Members:     consumeValuedMembers(decl.Members),
		})
	case "newtype":
		c.addDecl(&flat.NewType{
			DeclBase: base,
			TypeCtor: consumeType(decl.Type),
		})
	case "overlay":
		c.addDecl(&flat.Overlay{
			DeclBase:   base,
			IsResource: decl.Resource,
			Members:    consumeOrdinaledMembers(decl.Members),
		})
	case "protocol":
		c.addDecl(c.consumeProtocol(decl, base))
	case "resource":
		c.addDecl(&flat.Resource{
			DeclBase:    base,
			SubtypeCtor: consumeType(decl.Subtype),
			Properties:  consumeResourceProperties(decl.Properties),
		})
	case "service":
		c.addDecl(&flat.Service{
			DeclBase: base,
			Members:  consumeServiceMembers(decl.Members),
		})
	case "struct":
		c.addDecl(&flat.Struct{
			DeclBase:   base,
			IsResource: decl.Resource,
			Members:    consumeStructMembers(decl.Members),
		})
	case "table":
		c.addDecl(&flat.Table{
			DeclBase:   base,
			IsResource: decl.Resource,
			Members:    consumeOrdinaledMembers(decl.Members),
		})
	case "union":
		c.addDecl(&flat.Union{
			DeclBase:   base,
			IsResource: decl.Resource,
			Members:    consumeOrdinaledMembers(decl.Members),
		})
	default:
		c.reporter.Fail(errUnknownDeclKind(decl.Kind, consumeSpan(decl.Span)))
	}
}

func (c *Compiler) addDecl(decl flat.Decl) {
	decls := &c.library.Declarations
	switch decl := decl.(type) {
	case *flat.Alias:
		decls.Aliases = append(decls.Aliases, decl)
	case *flat.Bits:
		decls.Bits = append(decls.Bits, decl)
	case *flat.Builtin:
		decls.Builtins = append(decls.Builtins, decl)
	case *flat.Const:
		decls.Consts = append(decls.Consts, decl)
	case *flat.Enum:
		decls.Enums = append(decls.Enums, decl)
	case *flat.NewType:
		decls.NewTypes = append(decls.NewTypes, decl)
	case *flat.Overlay:
		decls.Overlays = append(decls.Overlays, decl)
	case *flat.Protocol:
		decls.Protocols = append(decls.Protocols, decl)
	case *flat.Resource:
		decls.Resources = append(decls.Resources, decl)
	case *flat.Service:
		decls.Services = append(decls.Services, decl)
	case *flat.Struct:
		decls.Structs = append(decls.Structs, decl)
	case *flat.Table:
		decls.Tables = append(decls.Tables, decl)
	case *flat.Union:
		decls.Unions = append(decls.Unions, decl)
	default:
		panic("compiler: unreachable decl kind")
	}
	c.library.DeclarationOrder = append(c.library.DeclarationOrder, decl)
}

func (c *Compiler) consumeProtocol(decl *ast.Decl, base flat.DeclBase) *flat.Protocol {
	protocol := &flat.Protocol{DeclBase: base}
	for _, compose := range decl.Compose {
		protocol.Composed = append(protocol.Composed, &flat.ComposedProtocol{
			Span:      consumeSpan(compose.Span),
			Reference: flat.Reference{Raw: compose.Protocol, Span: consumeSpan(compose.Span)},
		})
	}
	for i := range decl.Methods {
		method := &decl.Methods[i]
		protocol.Methods = append(protocol.Methods, &flat.Method{
			MemberBase: flat.MemberBase{
				Name:       method.Name,
				Span:       consumeSpan(method.Span),
				Attributes: consumeAttributes(method.Attributes),
			},
			HasRequest:  method.HasRequest,
			Request:     consumeType(method.Request),
			HasResponse: method.HasResponse,
			Response:    consumeType(method.Response),
			HasError:    method.HasError,
			Error:       consumeType(method.Error),
		})
	}
	return protocol
}

func consumeValuedMembers(members []ast.Member) []*flat.ValuedMember {
	var out []*flat.ValuedMember
	for i := range members {
		member := &members[i]
		out = append(out, &flat.ValuedMember{
			MemberBase: consumeMemberBase(member),
			Value:      consumeValue(member.Value),
		})
	}
	return out
}

func consumeStructMembers(members []ast.Member) []*flat.StructMember {
	var out []*flat.StructMember
	for i := range members {
		member := &members[i]
		out = append(out, &flat.StructMember{
			MemberBase:   consumeMemberBase(member),
			TypeCtor:     consumeType(member.Type),
			DefaultValue: consumeValue(member.Value),
		})
	}
	return out
}

func consumeOrdinaledMembers(members []ast.Member) []*flat.OrdinaledMember {
	var out []*flat.OrdinaledMember
	for i := range members {
		member := &members[i]
		out = append(out, &flat.OrdinaledMember{
			MemberBase: consumeMemberBase(member),
			Ordinal:    member.Ordinal,
			TypeCtor:   consumeType(member.Type),
		})
	}
	return out
}

func consumeResourceProperties(members []ast.Member) []*flat.ResourceProperty {
	var out []*flat.ResourceProperty
	for i := range members {
		member := &members[i]
		out = append(out, &flat.ResourceProperty{
			MemberBase: consumeMemberBase(member),
			TypeCtor:   consumeType(member.Type),
		})
	}
	return out
}

func consumeServiceMembers(members []ast.Member) []*flat.ServiceMember {
	var out []*flat.ServiceMember
	for i := range members {
		member := &members[i]
		out = append(out, &flat.ServiceMember{
			MemberBase: consumeMemberBase(member),
			TypeCtor:   consumeType(member.Type),
		})
	}
	return out
}

func consumeMemberBase(member *ast.Member) flat.MemberBase {
	return flat.MemberBase{
		Name:       member.Name,
		Span:       consumeSpan(member.Span),
		Attributes: consumeAttributes(member.Attributes),
	}
}

func consumeType(t *ast.Type) *flat.TypeConstructor {
	if t == nil {
		return nil
	}
	return &flat.TypeConstructor{
		Layout:           flat.Reference{Raw: t.Name, Span: consumeSpan(t.Span)},
		SizeConstant:     consumeValue(t.Size),
		ProtocolConstant: consumeValue(t.Protocol),
		ElementType:      consumeType(t.Element),
		BoxedType:        consumeType(t.Box),
	}
}

func consumeValue(v *ast.Value) flat.Constant {
	if v == nil {
		return nil
	}
	if v.Op != "" {
		return &flat.BinaryOperatorConstant{
			Op:    v.Op,
			Left:  consumeValue(v.Left),
			Right: consumeValue(v.Right),
		}
	}
	if v.Reference != "" {
		return &flat.IdentifierConstant{
			Reference: flat.Reference{Raw: v.Reference, Span: consumeSpan(v.Span)},
		}
	}
	return &flat.LiteralConstant{Value: v.Literal, Span: consumeSpan(v.Span)}
}

func consumeAttributes(attrs []ast.Attribute) []*flat.Attribute {
	var out []*flat.Attribute
	for i := range attrs {
		attr := &attrs[i]
		flatAttr := &flat.Attribute{
			Name: attr.Name,
			Span: consumeSpan(attr.Span),
		}
		for _, arg := range attr.Args {
			flatAttr.Args = append(flatAttr.Args, flat.AttributeArg{
				Name:  arg.Name,
				Value: arg.Value,
				Span:  consumeSpan(arg.Span),
			})
		}
		out = append(out, flatAttr)
	}
	return out
}

func consumeSpan(span ast.Span) flat.Span {
	return flat.Span{File: span.File, Start: span.Start, End: span.End}
}
