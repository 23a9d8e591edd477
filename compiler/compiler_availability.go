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

// attributeAvailable is the annotation carrying an element's availability.
const attributeAvailable = "available"

// applyAvailability determines the library's platform, then runs
// Init/Inherit over the whole declaration tree: library -> declaration ->
// member. Elements with no annotation inherit everything from their parent.
func (c *Compiler) applyAvailability() {
	c.compileLibraryAvailability()
	if c.library.Availability.Failed() {
		return
	}
	if !c.library.Platform.IsUnversioned() && !c.selection.Contains(c.library.Platform) {
		c.reporter.Fail(errPlatformNotTargeted(c.library.Platform, c.library.Span))
		return
	}
	for _, decl := range c.library.DeclarationOrder {
		c.compileDeclAvailability(decl)
	}
}

func (c *Compiler) compileLibraryAvailability() {
	library := c.library
	attr := libraryAttribute(library, attributeAvailable)
	if attr == nil {
		library.Platform = version.Unversioned()
		head := version.Head
		library.Availability.Init(version.InitArgs{Added: &head})
	} else {
		library.Platform = c.compilePlatform(attr)
		args, ok := c.parseAvailabilityArgs(attr)
		if !ok {
			library.Availability.Fail()
			return
		}
		if args.init.Added == nil {
			c.reporter.Fail(errMissingLibraryAdded(attr.Span))
			library.Availability.Fail()
			return
		}
		if !library.Availability.Init(args.init) {
			c.reporter.Fail(errAvailabilityOrder(library.Availability.Debug(), attr.Span))
			return
		}
	}
	unbounded := version.Unbounded()
	result := library.Availability.Inherit(&unbounded)
	if !result.Ok() {
		panic("compiler: library availability cannot conflict with the unbounded root")
	}
	if attr != nil {
		c.applyLegacy(&library.Availability, attr)
	}
}

func (c *Compiler) compilePlatform(attr *flat.Attribute) version.Platform {
	if arg := attr.Arg("platform"); arg != nil {
		platform, ok := version.ParsePlatform(arg.Value)
		if !ok {
			c.reporter.Fail(errInvalidPlatform(arg.Value, arg.Span))
			return version.Unversioned()
		}
		return platform
	}
	first, _, _ := strings.Cut(c.library.Name, ".")
	platform, ok := version.ParsePlatform(first)
	if !ok {
		// consumeFile validated the library name already.
		panic("compiler: library name has no valid platform component")
	}
	return platform
}

func (c *Compiler) compileDeclAvailability(decl flat.Decl) {
	base := decl.Base()
	name := base.Name.Decl
	if !c.compileElementAvailability(&base.Availability, base.Attributes, name, base.Span, &c.library.Availability) {
		return
	}
	parent := &base.Availability
	eachMember(decl, func(member *flat.MemberBase) {
		key := name + "." + member.Name
		c.compileElementAvailability(&member.Availability, member.Attributes, key, member.Span, parent)
	})
	if protocol, ok := decl.(*flat.Protocol); ok {
		for _, composed := range protocol.Composed {
			c.compileElementAvailability(&composed.Availability, nil, name, composed.Span, parent)
		}
	}
}

// compileElementAvailability runs the Init/Inherit half of one element's
// lifecycle and records its added point for replacement verification.
// Returns false if the availability failed; members of a failed declaration
// are skipped.
func (c *Compiler) compileElementAvailability(
	avail *version.Availability,
	attrs []*flat.Attribute,
	name string,
	span flat.Span,
	parent *version.Availability,
) bool {
	var attr *flat.Attribute
	for _, a := range attrs {
		if a.Name == attributeAvailable {
			attr = a
			break
		}
	}
	args := availabilityArgs{}
	if attr != nil {
		var ok bool
		args, ok = c.parseAvailabilityArgs(attr)
		if !ok {
			avail.Fail()
			return false
		}
	}
	if !avail.Init(args.init) {
		c.reporter.Fail(errAvailabilityOrder(avail.Debug(), span))
		return false
	}
	result := avail.Inherit(parent)
	if !result.Ok() {
		for _, field := range []struct {
			name   string
			status version.InheritStatus
		}{
			{"added", result.Added},
			{"deprecated", result.Deprecated},
			{"removed", result.Removed},
		} {
			if field.status != version.InheritOK {
				c.reporter.Fail(errInheritanceConflict(field.name, field.status, span))
			}
		}
		return false
	}
	if attr != nil && !c.applyLegacy(avail, attr) {
		return false
	}
	c.addedPoints[name] = append(c.addedPoints[name], avail.Added())
	if args.init.Replaced {
		c.replaced = append(c.replaced, replacedElement{
			name:    name,
			removed: *args.init.Removed,
			span:    span,
		})
	}
	return true
}

func (c *Compiler) applyLegacy(avail *version.Availability, attr *flat.Attribute) bool {
	arg := attr.Arg("legacy")
	if arg == nil || arg.Value != "true" {
		return true
	}
	if avail.Removed() == version.PosInf {
		return c.reporter.Fail(errLegacyWithoutRemoval(arg.Span))
	}
	avail.SetLegacy()
	return true
}

type availabilityArgs struct {
	init version.InitArgs
}

// parseAvailabilityArgs interprets the raw string arguments of an @available
// annotation. Sentinel versions other than NEXT and HEAD are rejected here
// so user input can never reach the algebra's internal encodings.
func (c *Compiler) parseAvailabilityArgs(attr *flat.Attribute) (availabilityArgs, bool) {
	args := availabilityArgs{}
	ok := true
	parse := func(name string) *version.Version {
		arg := attr.Arg(name)
		if arg == nil {
			return nil
		}
		v, valid := version.ParseVersion(arg.Value)
		if !valid {
			ok = c.reporter.Fail(errInvalidVersion(arg.Value, name, arg.Span))
			return nil
		}
		if v == version.Legacy {
			ok = c.reporter.Fail(errLegacyNotSelectable(name, arg.Span))
			return nil
		}
		return &v
	}
	args.init.Added = parse("added")
	args.init.Deprecated = parse("deprecated")
	removed := parse("removed")
	replaced := parse("replaced")
	if removed != nil && replaced != nil {
		ok = c.reporter.Fail(errRemovedAndReplaced(attr.Span))
	}
	if replaced != nil {
		args.init.Removed = replaced
		args.init.Replaced = true
	} else {
		args.init.Removed = removed
	}
	return args, ok
}

func libraryAttribute(library *flat.Library, name string) *flat.Attribute {
	for _, attr := range library.Attributes {
		if attr.Name == name {
			return attr
		}
	}
	return nil
}

// eachMember visits every member of a declaration that carries its own
// availability. Composed protocols are visited separately since they have no
// member base.
func eachMember(decl flat.Decl, visit func(*flat.MemberBase)) {
	switch decl := decl.(type) {
	case *flat.Builtin, *flat.Const, *flat.Alias, *flat.NewType:
	case *flat.Bits:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Enum:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Struct:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Table:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Union:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Overlay:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Resource:
		for _, property := range decl.Properties {
			visit(&property.MemberBase)
		}
	case *flat.Service:
		for _, member := range decl.Members {
			visit(&member.MemberBase)
		}
	case *flat.Protocol:
		for _, method := range decl.Methods {
			visit(&method.MemberBase)
		}
	default:
		panic("compiler: unreachable decl kind")
	}
}
