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
	"sort"

	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/version"
)

// Compilation is a single-version snapshot of the most recently inserted
// library: its declarations present at the selected version, the external
// structs its protocols expose through method payloads, and the filtered
// declarations of every library it depends on. A Compilation is derived
// fresh on each query and never retained by the registry.
type Compilation struct {
	Library         FilteredLibrary
	Version         version.Version
	ExternalStructs []*flat.Struct
	Dependencies    []FilteredLibrary
}

// FilteredLibrary pairs a library with the declarations of it that exist at
// the selected version, in declaration order.
type FilteredLibrary struct {
	Library      *flat.Library
	Declarations []flat.Decl
}

// Filter projects the most recently inserted library onto the selection.
// Registered libraries not reachable from the target, and kept elements
// deprecated at the selected version, are reported as warnings.
func (all *Libraries) Filter(selection *version.Selection) *Compilation {
	if len(all.libraries) == 0 {
		panic("compiler: Filter requires a registered library")
	}
	for _, unused := range all.Unused() {
		all.reporter.Warn(warnUnusedLibrary(unused.Name))
	}
	target := all.libraries[len(all.libraries)-1]
	kept := filterDecls(target, selection)
	all.warnDeprecated(kept)
	compilation := &Compilation{
		Library: FilteredLibrary{
			Library:      target,
			Declarations: kept,
		},
		Version:         selection.Lookup(target.Platform),
		ExternalStructs: externalStructs(target, kept, selection),
	}
	deps := calcDependencies(kept)
	delete(deps, target)
	delete(deps, all.root)
	for _, library := range all.libraries {
		if _, ok := deps[library]; !ok {
			continue
		}
		compilation.Dependencies = append(compilation.Dependencies, FilteredLibrary{
			Library:      library,
			Declarations: filterDecls(library, selection),
		})
	}
	return compilation
}

// warnDeprecated reports declarations and members of the target library that
// are deprecated at the selected version.
func (all *Libraries) warnDeprecated(kept []flat.Decl) {
	for _, decl := range kept {
		base := decl.Base()
		if base.Availability.IsDeprecated() {
			all.reporter.Warn(warnDeprecatedElement(
				base.Name.FullyQualifiedName(), base.Span))
			continue
		}
		eachMember(decl, func(member *flat.MemberBase) {
			if member.Availability.IsDeprecated() {
				all.reporter.Warn(warnDeprecatedElement(
					base.Name.FullyQualifiedName()+"."+member.Name, member.Span))
			}
		})
	}
}

func filterDecls(library *flat.Library, selection *version.Selection) []flat.Decl {
	target := selection.Lookup(library.Platform)
	var kept []flat.Decl
	for _, decl := range library.DeclarationOrder {
		if decl.Base().Availability.Range().Contains(target) {
			kept = append(kept, decl)
		}
	}
	return kept
}

// externalStructs collects structs from other libraries that appear in kept
// protocols' method payloads, sorted by fully qualified name.
func externalStructs(target *flat.Library, kept []flat.Decl, selection *version.Selection) []*flat.Struct {
	seen := make(map[*flat.Struct]struct{})
	add := func(ctor *flat.TypeConstructor) {
		if ctor == nil {
			return
		}
		payload, ok := ctor.Layout.Target.(*flat.Struct)
		if !ok || payload.Name.Library == target {
			return
		}
		lookup := selection.Lookup(payload.Name.Library.Platform)
		if !payload.Availability.Range().Contains(lookup) {
			return
		}
		seen[payload] = struct{}{}
	}
	for _, decl := range kept {
		protocol, ok := decl.(*flat.Protocol)
		if !ok {
			continue
		}
		for _, method := range protocol.AllMethods() {
			add(method.Method.Request)
			add(method.Method.Response)
			add(method.Method.Error)
			if result := method.Method.ResultUnion; result != nil {
				for _, member := range result.Members {
					add(member.TypeCtor)
				}
			}
		}
	}
	structs := make([]*flat.Struct, 0, len(seen))
	for payload := range seen {
		structs = append(structs, payload)
	}
	sort.Slice(structs, func(i, j int) bool {
		return structs[i].Name.FullyQualifiedName() < structs[j].Name.FullyQualifiedName()
	})
	return structs
}
