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

	"go.vidl-lang.org/vidl/flat"
)

// verifyResourceness checks that only layouts declared as resource types can
// contain handles, directly or through nested value types.
func (c *Compiler) verifyResourceness() {
	memo := make(map[flat.Decl]bool)
	for _, decl := range c.library.DeclarationOrder {
		var declared bool
		var members []resourcenessMember
		switch decl := decl.(type) {
		case *flat.Struct:
			declared = decl.IsResource
			for _, member := range decl.Members {
				members = append(members, resourcenessMember{member.Name, member.Span, member.TypeCtor})
			}
		case *flat.Table:
			declared = decl.IsResource
			for _, member := range decl.Members {
				members = append(members, resourcenessMember{member.Name, member.Span, member.TypeCtor})
			}
		case *flat.Union:
			declared = decl.IsResource
			for _, member := range decl.Members {
				members = append(members, resourcenessMember{member.Name, member.Span, member.TypeCtor})
			}
		case *flat.Overlay:
			declared = decl.IsResource
			for _, member := range decl.Members {
				members = append(members, resourcenessMember{member.Name, member.Span, member.TypeCtor})
			}
		default:
			continue
		}
		if declared {
			continue
		}
		for _, member := range members {
			if isResourceCtor(member.ctor, memo) {
				c.reporter.Fail(errTypeMustBeResource(
					decl.Base().Name.Decl, member.name, member.span))
			}
		}
	}
}

type resourcenessMember struct {
	name string
	span flat.Span
	ctor *flat.TypeConstructor
}

func isResourceCtor(ctor *flat.TypeConstructor, memo map[flat.Decl]bool) bool {
	if ctor == nil {
		return false
	}
	if isResourceDecl(ctor.Layout.Target, memo) {
		return true
	}
	return isResourceCtor(ctor.ElementType, memo) || isResourceCtor(ctor.BoxedType, memo)
}

func isResourceDecl(decl flat.Decl, memo map[flat.Decl]bool) bool {
	if decl == nil {
		return false
	}
	if cached, ok := memo[decl]; ok {
		return cached
	}
	// Break reference cycles: a cycle of value types stays a value type.
	memo[decl] = false
	result := false
	switch decl := decl.(type) {
	case *flat.Builtin:
		result = decl.IsResource
	case *flat.Struct:
		result = decl.IsResource
		for _, member := range decl.Members {
			result = result || isResourceCtor(member.TypeCtor, memo)
		}
	case *flat.Table:
		result = decl.IsResource
		for _, member := range decl.Members {
			result = result || isResourceCtor(member.TypeCtor, memo)
		}
	case *flat.Union:
		result = decl.IsResource
		for _, member := range decl.Members {
			result = result || isResourceCtor(member.TypeCtor, memo)
		}
	case *flat.Overlay:
		result = decl.IsResource
		for _, member := range decl.Members {
			result = result || isResourceCtor(member.TypeCtor, memo)
		}
	case *flat.NewType:
		result = isResourceCtor(decl.TypeCtor, memo)
	case *flat.Alias:
		result = isResourceCtor(decl.PartialTypeCtor, memo)
	default:
	}
	memo[decl] = result
	return result
}

// knownTransports are the method transports a protocol may declare with
// @transport; the default is "channel".
var knownTransports = map[string]struct{}{
	"channel": {},
	"driver":  {},
	"banjo":   {},
	"syscall": {},
}

// verifyHandleTransports checks protocol transport declarations: the
// transport must be known, and composed protocols must share the composing
// protocol's transport.
func (c *Compiler) verifyHandleTransports() {
	for _, protocol := range c.library.Declarations.Protocols {
		transport := protocolTransport(protocol)
		if _, ok := knownTransports[transport]; !ok {
			c.reporter.Fail(errUnknownTransport(transport, protocol.Name.Decl, protocol.Span))
			continue
		}
		for _, composed := range protocol.Composed {
			target, ok := composed.Reference.Target.(*flat.Protocol)
			if !ok {
				continue
			}
			composedTransport := protocolTransport(target)
			if composedTransport != transport {
				c.reporter.Fail(errComposedTransportMismatch(
					protocol.Name.Decl, target.Name.Decl,
					composedTransport, transport, composed.Span))
			}
		}
	}
}

func protocolTransport(protocol *flat.Protocol) string {
	if attr := protocol.Attribute("transport"); attr != nil {
		if arg := attr.Arg("value"); arg != nil {
			return strings.ToLower(arg.Value)
		}
	}
	return "channel"
}

// verifyAttributes checks every attribute in the library against the
// registry's schema table. Unrecognized names are allowed (user-defined
// attributes), but near-miss names earn a typo warning.
func (c *Compiler) verifyAttributes() {
	c.verifyAttributeList(c.library.Attributes)
	for _, decl := range c.library.DeclarationOrder {
		c.verifyAttributeList(decl.Base().Attributes)
		eachMember(decl, func(member *flat.MemberBase) {
			c.verifyAttributeList(member.Attributes)
		})
	}
}

func (c *Compiler) verifyAttributeList(attrs []*flat.Attribute) {
	seen := make(map[string]struct{})
	for _, attr := range attrs {
		if _, dup := seen[attr.Name]; dup {
			c.reporter.Fail(errDuplicateAttribute(attr.Name, attr.Span))
			continue
		}
		seen[attr.Name] = struct{}{}
		c.verifyAttribute(attr)
	}
}

func (c *Compiler) verifyAttribute(attr *flat.Attribute) {
	schema, known := c.all.RetrieveAttributeSchema(attr.Name)
	if !known {
		c.all.WarnOnAttributeTypo(attr)
		return
	}
	for _, arg := range attr.Args {
		if !schema.allowsArg(arg.Name) {
			c.reporter.Fail(errAttributeArgNotAllowed(attr.Name, arg.Name, arg.Span))
		}
	}
	for _, required := range schema.requiredArgs {
		if attr.Arg(required) == nil {
			c.reporter.Fail(errMissingRequiredAttributeArg(attr.Name, required, attr.Span))
		}
	}
	if schema.validate != nil {
		schema.validate(attr, c.reporter)
	}
}

// verifyDependencies checks the cross-library dependency graph stays
// acyclic from the in-progress library.
func (c *Compiler) verifyDependencies() {
	visiting := make(map[*flat.Library]struct{})
	done := make(map[*flat.Library]struct{})
	var path []string
	var walk func(library *flat.Library) bool
	walk = func(library *flat.Library) bool {
		if _, ok := done[library]; ok {
			return true
		}
		if _, cycle := visiting[library]; cycle {
			path = append(path, library.Name)
			return false
		}
		visiting[library] = struct{}{}
		path = append(path, library.Name)
		for _, dep := range library.Dependencies() {
			if !walk(dep) {
				return false
			}
		}
		path = path[:len(path)-1]
		delete(visiting, library)
		done[library] = struct{}{}
		return true
	}
	if !walk(c.library) {
		c.reporter.Fail(errDependencyCycle(strings.Join(path, " -> "), c.library.Span))
	}
}
