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

// compileDecls checks per-declaration semantic rules: member name and
// ordinal uniqueness, required values, bits member representability.
func (c *Compiler) compileDecls() {
	for _, decl := range c.library.DeclarationOrder {
		c.compileDecl(decl)
	}
}

func (c *Compiler) compileDecl(decl flat.Decl) {
	name := decl.Base().Name.Decl
	seen := make(map[string]flat.Span)
	eachMember(decl, func(member *flat.MemberBase) {
		if _, dup := seen[member.Name]; dup {
			c.reporter.Fail(errDuplicateMemberName(name, member.Name, member.Span))
			return
		}
		seen[member.Name] = member.Span
	})
	switch decl := decl.(type) {
	case *flat.Bits:
		c.compileValuedMembers(name, decl.Members, true)
	case *flat.Enum:
		c.compileValuedMembers(name, decl.Members, false)
	case *flat.Const:
		if decl.Value == nil {
			c.reporter.Fail(errConstMissingValue(name, decl.Span))
		}
	case *flat.Table:
		c.compileOrdinals(name, decl.Members)
	case *flat.Union:
		c.compileOrdinals(name, decl.Members)
	case *flat.Overlay:
		c.compileOrdinals(name, decl.Members)
	case *flat.Protocol:
		c.compileProtocol(decl)
	default:
	}
}

func (c *Compiler) compileValuedMembers(decl string, members []*flat.ValuedMember, isBits bool) {
	for _, member := range members {
		if member.Value == nil {
			c.reporter.Fail(errMemberMissingValue(decl, member.Name, member.Span))
			continue
		}
		if !isBits {
			continue
		}
		// Only literal values are checked here; identifier and operator
		// expressions would need full constant evaluation.
		literal, ok := member.Value.(*flat.LiteralConstant)
		if !ok {
			continue
		}
		value, err := strconv.ParseUint(literal.Value, 0, 64)
		if err != nil || value == 0 || value&(value-1) != 0 {
			c.reporter.Fail(errBitsMemberNotPowerOfTwo(member.Name, literal.Value, member.Span))
		}
	}
}

func (c *Compiler) compileOrdinals(decl string, members []*flat.OrdinaledMember) {
	seen := make(map[uint32]struct{})
	for _, member := range members {
		if member.Ordinal == 0 {
			c.reporter.Fail(errOrdinalOutOfBounds(member.Name, member.Span))
			continue
		}
		if _, dup := seen[member.Ordinal]; dup {
			c.reporter.Fail(errDuplicateMemberOrdinal(decl, member.Ordinal, member.Span))
			continue
		}
		seen[member.Ordinal] = struct{}{}
	}
}

// compileProtocol checks that method names stay unique across the whole
// composition tree.
func (c *Compiler) compileProtocol(protocol *flat.Protocol) {
	seen := make(map[string]struct{})
	for _, method := range protocol.AllMethods() {
		if _, dup := seen[method.Method.Name]; dup {
			c.reporter.Fail(errDuplicateMethodName(
				protocol.Name.Decl, method.Method.Name, method.Method.Span))
			continue
		}
		seen[method.Method.Name] = struct{}{}
	}
}
