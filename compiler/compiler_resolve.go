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
	"go.vidl-lang.org/vidl/version"
)

// resolveReferences validates that same-named declarations never coexist at
// any version, projects every availability onto the window containing the
// selected version, drops members that do not exist in that window, and
// resolves every by-name reference against the library, the registry, and
// the builtin library.
func (c *Compiler) resolveReferences() {
	c.declsByName = make(map[string][]flat.Decl)
	for _, decl := range c.library.DeclarationOrder {
		name := decl.Base().Name.Decl
		c.declsByName[name] = append(c.declsByName[name], decl)
	}
	c.verifyNameOverlaps()
	target := c.selection.Lookup(c.library.Platform)
	for _, decl := range c.library.DeclarationOrder {
		c.narrowDecl(decl, target)
	}
	for _, decl := range c.library.DeclarationOrder {
		c.resolveDecl(decl)
	}
}

func (c *Compiler) verifyNameOverlaps() {
	for _, decls := range c.declsByName {
		for i := 1; i < len(decls); i++ {
			later := decls[i].Base()
			for _, earlier := range decls[:i] {
				earlierSet := earlier.Base().Availability.Set()
				laterSet := later.Availability.Set()
				if version.IntersectSets(&earlierSet, &laterSet) != nil {
					c.reporter.Fail(errNameCollision(
						later.Name.Decl, later.Span, earlier.Base().Span))
				}
			}
		}
	}
}

// narrowDecl projects one declaration and its members. A declaration
// present at the target version is narrowed to the breakpoint window
// containing it, and members absent at that version are dropped. A
// declaration absent at the target keeps its full window, which the filter
// will not match.
func (c *Compiler) narrowDecl(decl flat.Decl, target version.Version) {
	base := decl.Base()
	keep := narrowAvailability(&base.Availability, target)
	switch decl := decl.(type) {
	case *flat.Builtin, *flat.Const, *flat.Alias, *flat.NewType:
	case *flat.Bits:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.ValuedMember) *version.Availability { return &m.Availability })
	case *flat.Enum:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.ValuedMember) *version.Availability { return &m.Availability })
	case *flat.Struct:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.StructMember) *version.Availability { return &m.Availability })
	case *flat.Table:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.OrdinaledMember) *version.Availability { return &m.Availability })
	case *flat.Union:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.OrdinaledMember) *version.Availability { return &m.Availability })
	case *flat.Overlay:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.OrdinaledMember) *version.Availability { return &m.Availability })
	case *flat.Resource:
		decl.Properties = narrowMembers(decl.Properties, keep, target,
			func(m *flat.ResourceProperty) *version.Availability { return &m.Availability })
	case *flat.Service:
		decl.Members = narrowMembers(decl.Members, keep, target,
			func(m *flat.ServiceMember) *version.Availability { return &m.Availability })
	case *flat.Protocol:
		decl.Methods = narrowMembers(decl.Methods, keep, target,
			func(m *flat.Method) *version.Availability { return &m.Availability })
		decl.Composed = narrowMembers(decl.Composed, keep, target,
			func(m *flat.ComposedProtocol) *version.Availability { return &m.Availability })
	default:
		panic("compiler: unreachable decl kind")
	}
}

// narrowAvailability narrows to the window containing the target version
// and reports true, or to the element's full lifetime and reports false
// when the element does not exist at the target.
func narrowAvailability(avail *version.Availability, target version.Version) bool {
	set := avail.Set()
	if !set.Contains(target) {
		avail.Narrow(version.NewRange(avail.Added(), avail.Removed()))
		return false
	}
	points := avail.Points()
	for i := 0; i+1 < len(points); i++ {
		window := version.NewRange(points[i], points[i+1])
		if window.Contains(target) {
			avail.Narrow(window)
			return true
		}
	}
	panic("compiler: breakpoints do not cover a contained version")
}

// narrowMembers narrows each member of a kept declaration, dropping members
// absent at the target version. Members of dropped declarations are
// narrowed to their full lifetimes so later steps can still query them.
func narrowMembers[M any](
	members []M,
	parentKept bool,
	target version.Version,
	avail func(M) *version.Availability,
) []M {
	kept := members[:0]
	for _, member := range members {
		a := avail(member)
		if narrowAvailability(a, target) || !parentKept {
			kept = append(kept, member)
		}
	}
	return kept
}

func (c *Compiler) resolveDecl(decl flat.Decl) {
	eachTypeConstructor(decl, func(ctor *flat.TypeConstructor) {
		c.resolveReference(&ctor.Layout)
		if ctor.SizeConstant != nil {
			c.resolveConstant(ctor.SizeConstant)
		}
		if ctor.ProtocolConstant != nil {
			c.resolveConstant(ctor.ProtocolConstant)
		}
	})
	eachConstant(decl, func(constant flat.Constant) {
		c.resolveConstant(constant)
	})
	if protocol, ok := decl.(*flat.Protocol); ok {
		for _, composed := range protocol.Composed {
			c.resolveReference(&composed.Reference)
		}
	}
}

func (c *Compiler) resolveConstant(constant flat.Constant) {
	switch constant := constant.(type) {
	case *flat.LiteralConstant:
	case *flat.IdentifierConstant:
		c.resolveReference(&constant.Reference)
	case *flat.BinaryOperatorConstant:
		c.resolveConstant(constant.Left)
		c.resolveConstant(constant.Right)
	default:
		panic("compiler: unreachable constant kind")
	}
}

// resolveReference binds one raw name. Local names are tried first, then
// builtins; qualified names ("library.name/Decl") go through the registry.
// When several same-named declarations have disjoint lifetimes, the one
// containing the target version wins.
func (c *Compiler) resolveReference(ref *flat.Reference) {
	if ref.Target != nil {
		return
	}
	if libraryName, declName, qualified := strings.Cut(ref.Raw, "/"); qualified {
		library, ok := c.all.Lookup(libraryName)
		if !ok {
			c.reporter.Fail(errLibraryNotFound(libraryName, ref.Span))
			return
		}
		target := c.pickCandidate(externalCandidates(library, declName), library.Platform)
		if target == nil {
			c.reporter.Fail(errNameNotFound(ref.Raw, ref.Span))
			return
		}
		ref.Target = target
		c.library.AddDependency(library)
		return
	}
	if target := c.pickCandidate(c.declsByName[ref.Raw], c.library.Platform); target != nil {
		ref.Target = target
		return
	}
	if builtin, ok := c.all.RootDecl(ref.Raw); ok {
		ref.Target = builtin
		c.library.AddDependency(c.all.Root())
		return
	}
	c.reporter.Fail(errNameNotFound(ref.Raw, ref.Span))
}

// pickCandidate chooses among same-named declarations: the one whose
// narrowed window contains the selected version, or the first one when the
// name does not exist at that version (the declaration holding the dangling
// reference is itself filtered out).
func (c *Compiler) pickCandidate(candidates []flat.Decl, platform version.Platform) flat.Decl {
	if len(candidates) == 0 {
		return nil
	}
	target := c.selection.Lookup(platform)
	for _, candidate := range candidates {
		if candidate.Base().Availability.Range().Contains(target) {
			return candidate
		}
	}
	return candidates[0]
}

func externalCandidates(library *flat.Library, name string) []flat.Decl {
	var candidates []flat.Decl
	for _, decl := range library.DeclarationOrder {
		if decl.Base().Name.Decl == name {
			candidates = append(candidates, decl)
		}
	}
	return candidates
}

// eachTypeConstructor visits every type constructor of a declaration,
// including nested element and boxed types.
func eachTypeConstructor(decl flat.Decl, visit func(*flat.TypeConstructor)) {
	var walk func(*flat.TypeConstructor)
	walk = func(ctor *flat.TypeConstructor) {
		if ctor == nil {
			return
		}
		visit(ctor)
		walk(ctor.ElementType)
		walk(ctor.BoxedType)
	}
	switch decl := decl.(type) {
	case *flat.Builtin:
	case *flat.Bits:
		walk(decl.SubtypeCtor)
	case *flat.Enum:
		walk(decl.SubtypeCtor)
	case *flat.Const:
		walk(decl.TypeCtor)
	case *flat.Struct:
		for _, member := range decl.Members {
			walk(member.TypeCtor)
		}
	case *flat.Table:
		for _, member := range decl.Members {
			walk(member.TypeCtor)
		}
	case *flat.Union:
		for _, member := range decl.Members {
			walk(member.TypeCtor)
		}
	case *flat.Overlay:
		for _, member := range decl.Members {
			walk(member.TypeCtor)
		}
	case *flat.Alias:
		walk(decl.PartialTypeCtor)
	case *flat.NewType:
		walk(decl.TypeCtor)
	case *flat.Resource:
		walk(decl.SubtypeCtor)
		for _, property := range decl.Properties {
			walk(property.TypeCtor)
		}
	case *flat.Service:
		for _, member := range decl.Members {
			walk(member.TypeCtor)
		}
	case *flat.Protocol:
		for _, method := range decl.Methods {
			walk(method.Request)
			walk(method.Response)
			walk(method.Error)
		}
	default:
		panic("compiler: unreachable decl kind")
	}
}

// eachConstant visits the value expressions of a declaration.
func eachConstant(decl flat.Decl, visit func(flat.Constant)) {
	switch decl := decl.(type) {
	case *flat.Const:
		if decl.Value != nil {
			visit(decl.Value)
		}
	case *flat.Bits:
		for _, member := range decl.Members {
			if member.Value != nil {
				visit(member.Value)
			}
		}
	case *flat.Enum:
		for _, member := range decl.Members {
			if member.Value != nil {
				visit(member.Value)
			}
		}
	case *flat.Struct:
		for _, member := range decl.Members {
			if member.DefaultValue != nil {
				visit(member.DefaultValue)
			}
		}
	default:
	}
}
