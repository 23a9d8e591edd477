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

// applyReplacements desugars before verification so synthesized
// declarations are checked like consumed ones: every error-returning method
// gets a result union, and every element promising a replacement must
// actually have one added at its removal version.
func (c *Compiler) applyReplacements() {
	for _, protocol := range c.library.Declarations.Protocols {
		for _, method := range protocol.Methods {
			if method.HasError {
				c.synthesizeResultUnion(protocol, method)
			}
		}
	}
	c.verifyReplacements()
}

// synthesizeResultUnion materializes Protocol_Method_Result with the
// response payload at ordinal 1 and the error at ordinal 2. The union
// shares the method's availability window.
func (c *Compiler) synthesizeResultUnion(protocol *flat.Protocol, method *flat.Method) {
	name := protocol.Name.Decl + "_" + method.Name + "_Result"
	result := &flat.Union{
		DeclBase: flat.DeclBase{
			Name:         flat.Name{Library: c.library, Decl: name},
			Span:         method.Span,
			Availability: method.Availability,
			TypeShape:    envelopeShape,
			Synthesized:  true,
		},
		Members: []*flat.OrdinaledMember{
			{
				MemberBase: flat.MemberBase{
					Name:         "response",
					Span:         method.Span,
					Availability: method.Availability,
				},
				Ordinal:  1,
				TypeCtor: method.Response,
			},
			{
				MemberBase: flat.MemberBase{
					Name:         "err",
					Span:         method.Span,
					Availability: method.Availability,
				},
				Ordinal:  2,
				TypeCtor: method.Error,
			},
		},
	}
	method.ResultUnion = result
	c.library.Declarations.Unions = append(c.library.Declarations.Unions, result)
	c.library.DeclarationOrder = append(c.library.DeclarationOrder, result)
}

// verifyReplacements checks, for every element removed with 'replaced=N',
// that a same-named element is added at exactly N. The added points were
// recorded during availability assignment, before narrowing rewrote the
// windows.
func (c *Compiler) verifyReplacements() {
	for _, replaced := range c.replaced {
		found := false
		for _, added := range c.addedPoints[replaced.name] {
			if added == replaced.removed {
				found = true
				break
			}
		}
		if !found {
			c.reporter.Fail(errReplacementMissing(
				replaced.name, replaced.removed, replaced.span))
		}
	}
}
