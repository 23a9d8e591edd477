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

	"github.com/agext/levenshtein"

	"go.vidl-lang.org/vidl/diag"
	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/version"
)

// rootLibraryName is the implicit library every compilation may reference
// without importing: primitive types, strings, vectors, handles.
const rootLibraryName = "vidl"

// Libraries is the insertion-ordered registry of finished libraries. It owns
// the diagnostic reporter shared by every compilation run and the table of
// attribute schemas consulted during verification.
type Libraries struct {
	reporter *diag.Reporter

	libraries []*flat.Library
	byName    map[string]*flat.Library

	attributeSchemas map[string]*AttributeSchema

	root        *flat.Library
	rootDecls   map[string]*flat.Builtin
	userDefined *AttributeSchema
}

func NewLibraries(reporter *diag.Reporter) *Libraries {
	all := &Libraries{
		reporter:         reporter,
		byName:           make(map[string]*flat.Library),
		attributeSchemas: make(map[string]*AttributeSchema),
		rootDecls:        make(map[string]*flat.Builtin),
		userDefined:      &AttributeSchema{anyArgs: true},
	}
	all.root = newRootLibrary()
	for _, builtin := range all.root.Declarations.Builtins {
		all.rootDecls[builtin.Name.Decl] = builtin
	}
	registerBaseAttributeSchemas(all)
	return all
}

func (all *Libraries) Reporter() *diag.Reporter {
	return all.reporter
}

// Root returns the implicit builtin library.
func (all *Libraries) Root() *flat.Library {
	return all.root
}

// RootDecl resolves a builtin by name, e.g. "uint32".
func (all *Libraries) RootDecl(name string) (*flat.Builtin, bool) {
	builtin, ok := all.rootDecls[name]
	return builtin, ok
}

// Insert registers a finished library. Duplicate names are a recoverable
// failure: a diagnostic is recorded and the registry is unchanged.
func (all *Libraries) Insert(library *flat.Library) bool {
	if _, ok := all.byName[library.Name]; ok {
		return all.reporter.Fail(errDuplicateLibrary(library.Name))
	}
	all.byName[library.Name] = library
	all.libraries = append(all.libraries, library)
	return true
}

func (all *Libraries) Lookup(name string) (*flat.Library, bool) {
	library, ok := all.byName[name]
	return library, ok
}

// Remove unregisters a library. The library must be present; removing an
// unknown library is a defect in the caller.
func (all *Libraries) Remove(library *flat.Library) {
	registered, ok := all.byName[library.Name]
	if !ok || registered != library {
		panic("compiler: removed library that was never registered")
	}
	delete(all.byName, library.Name)
	for i, l := range all.libraries {
		if l == library {
			all.libraries = append(all.libraries[:i], all.libraries[i+1:]...)
			break
		}
	}
}

// Unused returns every registered library not transitively reachable from
// the most recently inserted one, sorted by name. The root library is never
// reported.
func (all *Libraries) Unused() []*flat.Library {
	if len(all.libraries) == 0 {
		panic("compiler: Unused requires a registered library")
	}
	target := all.libraries[len(all.libraries)-1]
	reachable := map[*flat.Library]struct{}{target: {}}
	stack := []*flat.Library{target}
	for len(stack) > 0 {
		library := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dep := range calcDependencies(library.DeclarationOrder) {
			if _, ok := reachable[dep]; !ok {
				reachable[dep] = struct{}{}
				stack = append(stack, dep)
			}
		}
	}
	var unused []*flat.Library
	for _, library := range all.libraries {
		if _, ok := reachable[library]; !ok {
			unused = append(unused, library)
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].Name < unused[j].Name
	})
	return unused
}

// AttributeSchema describes one recognized attribute: which arguments it
// accepts, which it requires, and an optional extra validation hook.
type AttributeSchema struct {
	optionalArgs []string
	requiredArgs []string
	anyArgs      bool

	validate func(attr *flat.Attribute, reporter *diag.Reporter)
}

func (s *AttributeSchema) allowsArg(name string) bool {
	if s.anyArgs {
		return true
	}
	for _, arg := range s.requiredArgs {
		if arg == name {
			return true
		}
	}
	for _, arg := range s.optionalArgs {
		if arg == name {
			return true
		}
	}
	return false
}

// AddAttributeSchema registers a schema. Registering the same name twice is
// a defect in the caller.
func (all *Libraries) AddAttributeSchema(name string, schema *AttributeSchema) {
	if _, ok := all.attributeSchemas[name]; ok {
		panic("compiler: duplicate attribute schema '" + name + "'")
	}
	all.attributeSchemas[name] = schema
}

// RetrieveAttributeSchema returns the schema for an attribute name, falling
// back to the permissive user-defined schema when the name is unknown. The
// second result reports whether the name was recognized.
func (all *Libraries) RetrieveAttributeSchema(name string) (*AttributeSchema, bool) {
	if schema, ok := all.attributeSchemas[name]; ok {
		return schema, true
	}
	return all.userDefined, false
}

// WarnOnAttributeTypo suggests a known attribute whose name is within edit
// distance 1 of the unrecognized one.
func (all *Libraries) WarnOnAttributeTypo(attr *flat.Attribute) {
	names := make([]string, 0, len(all.attributeSchemas))
	for name := range all.attributeSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if levenshtein.Distance(attr.Name, name, nil) < 2 {
			all.reporter.Warn(warnAttributeTypo(attr.Name, name, attr.Span))
			return
		}
	}
}

func registerBaseAttributeSchemas(all *Libraries) {
	all.AddAttributeSchema("available", &AttributeSchema{
		optionalArgs: []string{
			"platform", "added", "deprecated", "removed",
			"replaced", "legacy", "note",
		},
	})
	all.AddAttributeSchema("transport", &AttributeSchema{
		requiredArgs: []string{"value"},
	})
	all.AddAttributeSchema("discoverable", &AttributeSchema{
		optionalArgs: []string{"name"},
	})
	all.AddAttributeSchema("deprecated", &AttributeSchema{
		optionalArgs: []string{"note"},
	})
	all.AddAttributeSchema("doc", &AttributeSchema{
		requiredArgs: []string{"value"},
	})
	all.AddAttributeSchema("generated_name", &AttributeSchema{
		requiredArgs: []string{"value"},
	})
}

type builtinSpec struct {
	name       string
	isResource bool
	shape      flat.TypeShape
}

// Parameterized builtins (vector, array, box, client_end, server_end) have
// their shapes computed at the use site; the entries here are the shapes of
// the bare layouts.
var builtinSpecs = []builtinSpec{
	{name: "bool", shape: flat.TypeShape{InlineSize: 1, Alignment: 1}},
	{name: "int8", shape: flat.TypeShape{InlineSize: 1, Alignment: 1}},
	{name: "int16", shape: flat.TypeShape{InlineSize: 2, Alignment: 2}},
	{name: "int32", shape: flat.TypeShape{InlineSize: 4, Alignment: 4}},
	{name: "int64", shape: flat.TypeShape{InlineSize: 8, Alignment: 8}},
	{name: "uint8", shape: flat.TypeShape{InlineSize: 1, Alignment: 1}},
	{name: "uint16", shape: flat.TypeShape{InlineSize: 2, Alignment: 2}},
	{name: "uint32", shape: flat.TypeShape{InlineSize: 4, Alignment: 4}},
	{name: "uint64", shape: flat.TypeShape{InlineSize: 8, Alignment: 8}},
	{name: "float32", shape: flat.TypeShape{InlineSize: 4, Alignment: 4}},
	{name: "float64", shape: flat.TypeShape{InlineSize: 8, Alignment: 8}},
	{name: "string", shape: flat.TypeShape{InlineSize: 16, Alignment: 8}},
	{name: "vector", shape: flat.TypeShape{InlineSize: 16, Alignment: 8}},
	{name: "array", shape: flat.TypeShape{}},
	{name: "box", shape: flat.TypeShape{InlineSize: 8, Alignment: 8}},
	{name: "handle", isResource: true, shape: flat.TypeShape{InlineSize: 4, Alignment: 4}},
	{name: "client_end", isResource: true, shape: flat.TypeShape{InlineSize: 4, Alignment: 4}},
	{name: "server_end", isResource: true, shape: flat.TypeShape{InlineSize: 4, Alignment: 4}},
}

func newRootLibrary() *flat.Library {
	root := &flat.Library{
		Name:     rootLibraryName,
		Platform: version.Unversioned(),
	}
	head := version.Head
	root.Availability.Init(version.InitArgs{Added: &head})
	unbounded := version.Unbounded()
	root.Availability.Inherit(&unbounded)
	for _, spec := range builtinSpecs {
		builtin := &flat.Builtin{
			DeclBase: flat.DeclBase{
				Name:      flat.Name{Library: root, Decl: spec.name},
				TypeShape: spec.shape,
			},
			Identity:   spec.name,
			IsResource: spec.isResource,
			Shape:      spec.shape,
		}
		builtin.Availability.Init(version.InitArgs{Added: &head})
		builtin.Availability.Inherit(&root.Availability)
		builtin.Availability.Narrow(version.NewRange(version.Head, version.PosInf))
		root.Declarations.Builtins = append(root.Declarations.Builtins, builtin)
		root.DeclarationOrder = append(root.DeclarationOrder, builtin)
	}
	root.Availability.Narrow(version.NewRange(version.Head, version.PosInf))
	return root
}
