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
	"fmt"
	"strings"

	"go.vidl-lang.org/vidl/ast"
	"go.vidl-lang.org/vidl/diag"
	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/version"
)

func errInvalidLibraryName(name string, span flat.Span) *diag.Error {
	return diag.NewError(3000,
		fmt.Sprintf("Invalid library name %q", name), span)
}

func errLibraryNameMismatch(want, got string, span flat.Span) *diag.Error {
	return diag.NewError(3001, fmt.Sprintf(
		"File declares library %q, earlier files declared %q", got, want), span)
}

func errDuplicateLibrary(name string) *diag.Error {
	return diag.NewError(3002,
		fmt.Sprintf("Library %q was already registered", name), flat.Span{})
}

func errUnknownDeclKind(kind string, span flat.Span) *diag.Error {
	return diag.NewError(3003, fmt.Sprintf(
		"Unknown declaration kind %q, expected one of %s",
		kind, strings.Join(ast.DeclKinds, ", ")), span)
}

func errInvalidPlatform(name string, span flat.Span) *diag.Error {
	return diag.NewError(3004,
		fmt.Sprintf("Invalid platform name %q", name), span)
}

func errPlatformNotTargeted(platform version.Platform, span flat.Span) *diag.Error {
	return diag.NewError(3005, fmt.Sprintf(
		"No target version was selected for platform %q", platform.Name()), span)
}

func errInvalidVersion(value, arg string, span flat.Span) *diag.Error {
	return diag.NewError(3006, fmt.Sprintf(
		"Invalid version %q for argument '%s'", value, arg), span)
}

func errLegacyNotSelectable(arg string, span flat.Span) *diag.Error {
	return diag.NewError(3007, fmt.Sprintf(
		"Argument '%s' cannot be LEGACY", arg), span)
}

func errRemovedAndReplaced(span flat.Span) *diag.Error {
	return diag.NewError(3008,
		"Arguments 'removed' and 'replaced' are mutually exclusive", span)
}

func errMissingLibraryAdded(span flat.Span) *diag.Error {
	return diag.NewError(3009,
		"A versioned library must say when it was added", span)
}

func errAvailabilityOrder(debug string, span flat.Span) *diag.Error {
	return diag.NewError(3010, fmt.Sprintf(
		"Availability fields are out of order: expected"+
			" added <= deprecated < removed, got [%s]", debug), span)
}

func errInheritanceConflict(field string, status version.InheritStatus, span flat.Span) *diag.Error {
	var relation string
	switch status {
	case version.BeforeParentAdded:
		relation = "before the parent element was added"
	case version.AfterParentRemoved:
		relation = "at or after the point the parent element was removed"
	case version.AfterParentDeprecated:
		relation = "after the parent element was deprecated"
	default:
		panic("compiler: unreachable inherit status")
	}
	return diag.NewError(3011, fmt.Sprintf(
		"Argument '%s' is %s", field, relation), span)
}

func errLegacyWithoutRemoval(span flat.Span) *diag.Error {
	return diag.NewError(3012,
		"Argument 'legacy' requires the element to be removed", span)
}

func errNameNotFound(name string, span flat.Span) *diag.Error {
	return diag.NewError(3013,
		fmt.Sprintf("Cannot resolve %q", name), span)
}

func errLibraryNotFound(name string, span flat.Span) *diag.Error {
	return diag.NewError(3014,
		fmt.Sprintf("Library %q not found in dependencies", name), span)
}

func errNameCollision(name string, span, prevSpan flat.Span) *diag.Error {
	return diag.NewError(3015, fmt.Sprintf(
		"Name %q collides with an earlier declaration in %s whose"+
			" availability overlaps", name, prevSpan.File), span)
}

func errDuplicateMemberName(decl, member string, span flat.Span) *diag.Error {
	return diag.NewError(3016, fmt.Sprintf(
		"Duplicate member name '%s' in '%s'", member, decl), span)
}

func errOrdinalOutOfBounds(member string, span flat.Span) *diag.Error {
	return diag.NewError(3017, fmt.Sprintf(
		"Member '%s' must have an ordinal greater than zero", member), span)
}

func errDuplicateMemberOrdinal(decl string, ordinal uint32, span flat.Span) *diag.Error {
	return diag.NewError(3018, fmt.Sprintf(
		"Duplicate ordinal %d in '%s'", ordinal, decl), span)
}

func errMemberMissingValue(decl, member string, span flat.Span) *diag.Error {
	return diag.NewError(3019, fmt.Sprintf(
		"Member '%s' of '%s' must have a value", member, decl), span)
}

func errConstMissingValue(name string, span flat.Span) *diag.Error {
	return diag.NewError(3020,
		fmt.Sprintf("Const '%s' must have a value", name), span)
}

func errBitsMemberNotPowerOfTwo(member, value string, span flat.Span) *diag.Error {
	return diag.NewError(3021, fmt.Sprintf(
		"Bits member '%s' value %s is not a power of two", member, value), span)
}

func errDuplicateMethodName(protocol, method string, span flat.Span) *diag.Error {
	return diag.NewError(3022, fmt.Sprintf(
		"Protocol '%s' defines method '%s' more than once, possibly"+
			" through composition", protocol, method), span)
}

func errTypeCycle(name string, span flat.Span) *diag.Error {
	return diag.NewError(3023, fmt.Sprintf(
		"Type '%s' includes itself without indirection", name), span)
}

func errCouldNotParseSizeBound(value string, span flat.Span) *diag.Error {
	return diag.NewError(3024,
		fmt.Sprintf("Cannot parse size bound %q", value), span)
}

func errMissingSizeBound(span flat.Span) *diag.Error {
	return diag.NewError(3025, "Array types must have a size bound", span)
}

func errReplacementMissing(name string, removed version.Version, span flat.Span) *diag.Error {
	return diag.NewError(3026, fmt.Sprintf(
		"Element '%s' is replaced at version %s, but nothing with that"+
			" name is added at %s", name, removed.String(), removed.String()), span)
}

func errTypeMustBeResource(decl, member string, span flat.Span) *diag.Error {
	return diag.NewError(3027, fmt.Sprintf(
		"'%s' may contain handles (due to member '%s'), so it must"+
			" be declared as a resource type", decl, member), span)
}

func errUnknownTransport(transport, protocol string, span flat.Span) *diag.Error {
	return diag.NewError(3028, fmt.Sprintf(
		"Unknown transport %q on protocol '%s'", transport, protocol), span)
}

func errComposedTransportMismatch(protocol, composed, want, got string, span flat.Span) *diag.Error {
	return diag.NewError(3029, fmt.Sprintf(
		"Protocol '%s' (transport %q) cannot compose '%s' (transport %q)",
		protocol, got, composed, want), span)
}

func errDuplicateAttribute(name string, span flat.Span) *diag.Error {
	return diag.NewError(3030,
		fmt.Sprintf("Duplicate attribute '%s'", name), span)
}

func errAttributeArgNotAllowed(attr, arg string, span flat.Span) *diag.Error {
	return diag.NewError(3031, fmt.Sprintf(
		"Attribute '%s' does not accept argument '%s'", attr, arg), span)
}

func errMissingRequiredAttributeArg(attr, arg string, span flat.Span) *diag.Error {
	return diag.NewError(3032, fmt.Sprintf(
		"Attribute '%s' requires argument '%s'", attr, arg), span)
}

func errDependencyCycle(path string, span flat.Span) *diag.Error {
	return diag.NewError(3033,
		fmt.Sprintf("Library dependency cycle: %s", path), span)
}
