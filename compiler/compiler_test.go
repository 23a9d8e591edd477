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

package compiler_test

import (
	"strings"
	"testing"

	"go.vidl-lang.org/vidl/ast"
	"go.vidl-lang.org/vidl/compiler"
	"go.vidl-lang.org/vidl/diag"
	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/internal/testutil"
	"go.vidl-lang.org/vidl/version"
)

func newSelection(t *testing.T, platform string, targets ...string) *version.Selection {
	t.Helper()
	selection := version.NewSelection()
	if platform == "" {
		return selection
	}
	p, ok := version.ParsePlatform(platform)
	testutil.AssertTrue(t, ok)
	var versions []version.Version
	for _, target := range targets {
		v, ok := version.ParseVersion(target)
		testutil.AssertTrue(t, ok)
		versions = append(versions, v)
	}
	testutil.AssertTrue(t, selection.Insert(p, versions))
	return selection
}

func compileFile(t *testing.T, all *compiler.Libraries, selection *version.Selection, file *ast.File) bool {
	t.Helper()
	c := compiler.NewCompiler(all, selection)
	if !c.ConsumeFile(file) {
		return false
	}
	return c.Compile()
}

func attr(name string, args ...string) ast.Attribute {
	a := ast.Attribute{Name: name}
	for i := 0; i+1 < len(args); i += 2 {
		a.Args = append(a.Args, ast.Arg{Name: args[i], Value: args[i+1]})
	}
	return a
}

func errorCodes(reporter *diag.Reporter) []uint32 {
	var codes []uint32
	for _, err := range reporter.Errors() {
		codes = append(codes, err.Code())
	}
	return codes
}

func TestCompileUnversionedLibrary(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{Kind: "struct", Name: "Point", Members: []ast.Member{
				{Name: "x", Type: &ast.Type{Name: "int32"}},
				{Name: "y", Type: &ast.Type{Name: "int32"}},
			}},
		},
	})
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, 0, len(reporter.Errors()))

	compilation := all.Filter(selection)
	testutil.ExpectEq(t, version.Head, compilation.Version)
	testutil.ExpectEq(t, 1, len(compilation.Library.Declarations))
	testutil.ExpectEq(t, "example/Point",
		compilation.Library.Declarations[0].Base().Name.FullyQualifiedName())
}

func TestFilterExcludesRemovedAtHead(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "test", "HEAD")

	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "1")},
		Decls: []ast.Decl{
			{
				Kind: "struct", Name: "S",
				Attributes: []ast.Attribute{attr("available", "added", "1", "removed", "5")},
			},
			{Kind: "struct", Name: "Kept"},
		},
	})
	testutil.ExpectTrue(t, ok)

	compilation := all.Filter(selection)
	testutil.ExpectEq(t, 1, len(compilation.Library.Declarations))
	testutil.ExpectEq(t, "Kept", compilation.Library.Declarations[0].Base().Name.Decl)
}

func deprecationScenario(t *testing.T, target string) (*compiler.Compilation, *diag.Reporter) {
	t.Helper()
	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "test", target)

	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "1")},
		Decls: []ast.Decl{
			{
				Kind: "table", Name: "Parent",
				Attributes: []ast.Attribute{attr("available", "added", "2", "removed", "10")},
				Members: []ast.Member{
					{
						Name: "t", Ordinal: 1,
						Type:       &ast.Type{Name: "uint32"},
						Attributes: []ast.Attribute{attr("available", "deprecated", "8")},
					},
				},
			},
		},
	})
	testutil.AssertTrue(t, ok)
	return all.Filter(selection), reporter
}

func TestMemberDeprecationAtSelectedVersion(t *testing.T) {
	t.Parallel()

	at9, reporter9 := deprecationScenario(t, "9")
	testutil.ExpectEq(t, 1, len(at9.Library.Declarations))
	parent := at9.Library.Library.Declarations.Tables[0]
	testutil.ExpectEq(t, 1, len(parent.Members))
	testutil.ExpectTrue(t, parent.Members[0].Availability.IsDeprecated())
	testutil.AssertTrue(t, len(reporter9.Warnings()) == 1)
	testutil.ExpectEq(t, uint32(4002), reporter9.Warnings()[0].Code())
	testutil.ExpectTrue(t, strings.Contains(
		reporter9.Warnings()[0].Message(), "test/Parent.t"))

	at5, reporter5 := deprecationScenario(t, "5")
	testutil.ExpectEq(t, 1, len(at5.Library.Declarations))
	parent = at5.Library.Library.Declarations.Tables[0]
	testutil.ExpectFalse(t, parent.Members[0].Availability.IsDeprecated())
	testutil.ExpectEq(t, 0, len(reporter5.Warnings()))
}

func TestDuplicateLibraryInsert(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	file := &ast.File{Library: "dup", Decls: []ast.Decl{{Kind: "struct", Name: "A"}}}
	testutil.ExpectTrue(t, compileFile(t, all, selection, file))

	file2 := &ast.File{Library: "dup", Decls: []ast.Decl{{Kind: "struct", Name: "B"}}}
	testutil.ExpectFalse(t, compileFile(t, all, selection, file2))
	testutil.ExpectSliceEq(t, []uint32{3002}, errorCodes(reporter))

	library, ok := all.Lookup("dup")
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "A", library.DeclarationOrder[0].Base().Name.Decl)
}

func TestNameCollision(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "test", "6")

	// Overlapping lifetimes collide.
	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "1")},
		Decls: []ast.Decl{
			{Kind: "struct", Name: "S", Attributes: []ast.Attribute{attr("available", "added", "1")}},
			{Kind: "struct", Name: "S", Attributes: []ast.Attribute{attr("available", "added", "3")}},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3015}, errorCodes(reporter))
}

func TestVersionSwappedDecl(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "test", "6")

	// Disjoint lifetimes may share a name; the declaration live at the
	// selected version wins.
	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "1")},
		Decls: []ast.Decl{
			{
				Kind: "struct", Name: "S",
				Attributes: []ast.Attribute{attr("available", "added", "1", "replaced", "5")},
			},
			{
				Kind: "table", Name: "S",
				Attributes: []ast.Attribute{attr("available", "added", "5")},
			},
		},
	})
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, 0, len(reporter.Errors()))

	compilation := all.Filter(selection)
	testutil.ExpectEq(t, 1, len(compilation.Library.Declarations))
	_, isTable := compilation.Library.Declarations[0].(*flat.Table)
	testutil.ExpectTrue(t, isTable)
}

func TestReplacedWithoutReplacement(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "test", "2")

	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "1")},
		Decls: []ast.Decl{
			{
				Kind: "struct", Name: "S",
				Attributes: []ast.Attribute{attr("available", "added", "1", "replaced", "5")},
			},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3026}, errorCodes(reporter))
}

func TestResultUnionSynthesis(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{
				Kind: "protocol", Name: "Calc",
				Methods: []ast.Method{
					{
						Name:        "Div",
						HasRequest:  true,
						Request:     &ast.Type{Name: "Operands"},
						HasResponse: true,
						Response:    &ast.Type{Name: "Operands"},
						HasError:    true,
						Error:       &ast.Type{Name: "uint32"},
					},
				},
			},
			{Kind: "struct", Name: "Operands", Members: []ast.Member{
				{Name: "a", Type: &ast.Type{Name: "float64"}},
				{Name: "b", Type: &ast.Type{Name: "float64"}},
			}},
		},
	})
	testutil.AssertTrue(t, ok)

	library, _ := all.Lookup("example")
	testutil.ExpectEq(t, 1, len(library.Declarations.Unions))
	result := library.Declarations.Unions[0]
	testutil.ExpectEq(t, "Calc_Div_Result", result.Name.Decl)
	testutil.ExpectTrue(t, result.Synthesized)
	testutil.ExpectEq(t, 2, len(result.Members))
	testutil.ExpectEq(t, result, library.Declarations.Protocols[0].Methods[0].ResultUnion)
}

func TestInheritanceConflict(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "test", "5")

	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "5")},
		Decls: []ast.Decl{
			{
				Kind: "struct", Name: "Early",
				Attributes: []ast.Attribute{attr("available", "added", "1")},
			},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3011}, errorCodes(reporter))
	testutil.ExpectTrue(t, strings.Contains(
		reporter.Errors()[0].Message(), "before the parent element was added"))
}

func TestResourcenessVerification(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{Kind: "struct", Name: "Leaky", Members: []ast.Member{
				{Name: "h", Type: &ast.Type{Name: "handle"}},
			}},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3027}, errorCodes(reporter))

	reporter2 := diag.NewReporter()
	all2 := compiler.NewLibraries(reporter2)
	ok = compileFile(t, all2, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{Kind: "struct", Name: "Holder", Resource: true, Members: []ast.Member{
				{Name: "h", Type: &ast.Type{Name: "handle"}},
			}},
		},
	})
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, 0, len(reporter2.Errors()))
}

func TestAttributeTypoWarning(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{
				Kind: "protocol", Name: "P",
				Attributes: []ast.Attribute{attr("discoverabl")},
			},
		},
	})
	testutil.ExpectTrue(t, ok)
	testutil.AssertTrue(t, len(reporter.Warnings()) == 1)
	warning := reporter.Warnings()[0]
	testutil.ExpectEq(t, uint32(4000), warning.Code())
	testutil.ExpectTrue(t, strings.Contains(warning.Message(), "discoverable"))
}

func TestTransportVerification(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{
				Kind: "protocol", Name: "P",
				Attributes: []ast.Attribute{attr("transport", "value", "smoke")},
			},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3028}, errorCodes(reporter))
}

func TestComposedTransportMismatch(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{
				Kind: "protocol", Name: "Base",
				Attributes: []ast.Attribute{attr("transport", "value", "driver")},
			},
			{
				Kind:    "protocol",
				Name:    "Derived",
				Compose: []ast.Compose{{Protocol: "Base"}},
			},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3029}, errorCodes(reporter))
}

func TestStructShapes(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{Kind: "struct", Name: "Mixed", Members: []ast.Member{
				{Name: "a", Type: &ast.Type{Name: "uint8"}},
				{Name: "b", Type: &ast.Type{Name: "uint32"}},
				{Name: "c", Type: &ast.Type{Name: "uint8"}},
			}},
			{Kind: "struct", Name: "Empty"},
			{Kind: "struct", Name: "Fixed", Members: []ast.Member{
				{
					Name: "buf",
					Type: &ast.Type{
						Name:    "array",
						Size:    &ast.Value{Literal: "3"},
						Element: &ast.Type{Name: "uint16"},
					},
				},
			}},
		},
	})
	testutil.AssertTrue(t, ok)

	library, _ := all.Lookup("example")
	structs := library.Declarations.Structs
	testutil.ExpectDeepEq(t, flat.TypeShape{InlineSize: 12, Alignment: 4}, structs[0].TypeShape)
	testutil.ExpectDeepEq(t, flat.TypeShape{InlineSize: 1, Alignment: 1}, structs[1].TypeShape)
	testutil.ExpectDeepEq(t, flat.TypeShape{InlineSize: 6, Alignment: 2}, structs[2].TypeShape)
}

func TestUnusedLibraries(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	libA := &ast.File{Library: "liba", Decls: []ast.Decl{
		{Kind: "struct", Name: "Shared"},
	}}
	libC := &ast.File{Library: "libc", Decls: []ast.Decl{
		{Kind: "struct", Name: "Wrapper", Members: []ast.Member{
			{Name: "s", Type: &ast.Type{Name: "liba/Shared"}},
		}},
	}}
	libB := &ast.File{Library: "libb", Decls: []ast.Decl{
		{Kind: "struct", Name: "Holder", Members: []ast.Member{
			{Name: "s", Type: &ast.Type{Name: "liba/Shared"}},
		}},
	}}
	testutil.AssertTrue(t, compileFile(t, all, selection, libA))
	testutil.AssertTrue(t, compileFile(t, all, selection, libC))
	testutil.AssertTrue(t, compileFile(t, all, selection, libB))

	unused := all.Unused()
	testutil.AssertTrue(t, len(unused) == 1)
	testutil.ExpectEq(t, "libc", unused[0].Name)

	all.Filter(selection)
	testutil.AssertTrue(t, len(reporter.Warnings()) == 1)
	testutil.ExpectEq(t, uint32(4001), reporter.Warnings()[0].Code())
	testutil.ExpectTrue(t, strings.Contains(reporter.Warnings()[0].Message(), "libc"))

	all.Remove(unused[0])
	_, ok := all.Lookup("libc")
	testutil.ExpectFalse(t, ok)
	testutil.ExpectTrue(t, len(all.Unused()) == 0)
}

func TestFilterDependenciesAndExternalStructs(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	payloads := &ast.File{Library: "payloads", Decls: []ast.Decl{
		{Kind: "struct", Name: "Request", Members: []ast.Member{
			{Name: "value", Type: &ast.Type{Name: "uint64"}},
		}},
	}}
	api := &ast.File{Library: "api", Decls: []ast.Decl{
		{
			Kind: "protocol", Name: "Service",
			Methods: []ast.Method{
				{
					Name:       "Call",
					HasRequest: true,
					Request:    &ast.Type{Name: "payloads/Request"},
				},
			},
		},
	}}
	testutil.AssertTrue(t, compileFile(t, all, selection, payloads))
	testutil.AssertTrue(t, compileFile(t, all, selection, api))

	compilation := all.Filter(selection)
	testutil.AssertTrue(t, len(compilation.Dependencies) == 1)
	testutil.ExpectEq(t, "payloads", compilation.Dependencies[0].Library.Name)
	testutil.ExpectEq(t, 1, len(compilation.Dependencies[0].Declarations))
	testutil.AssertTrue(t, len(compilation.ExternalStructs) == 1)
	testutil.ExpectEq(t, "payloads/Request",
		compilation.ExternalStructs[0].Name.FullyQualifiedName())
}

func TestFilterComposedMethodDependencies(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	payloads := &ast.File{Library: "payloads", Decls: []ast.Decl{
		{Kind: "struct", Name: "Request", Members: []ast.Member{
			{Name: "value", Type: &ast.Type{Name: "uint64"}},
		}},
	}}
	base := &ast.File{Library: "base", Decls: []ast.Decl{
		{
			Kind: "protocol", Name: "Q",
			Methods: []ast.Method{
				{
					Name:       "Call",
					HasRequest: true,
					Request:    &ast.Type{Name: "payloads/Request"},
				},
			},
		},
	}}
	api := &ast.File{Library: "api", Decls: []ast.Decl{
		{
			Kind: "protocol", Name: "P",
			Compose: []ast.Compose{{Protocol: "base/Q"}},
		},
	}}
	testutil.AssertTrue(t, compileFile(t, all, selection, payloads))
	testutil.AssertTrue(t, compileFile(t, all, selection, base))
	testutil.AssertTrue(t, compileFile(t, all, selection, api))

	compilation := all.Filter(selection)
	var deps []string
	for _, dep := range compilation.Dependencies {
		deps = append(deps, dep.Library.Name)
	}
	testutil.ExpectSliceEq(t, []string{"payloads", "base"}, deps)
	testutil.AssertTrue(t, len(compilation.ExternalStructs) == 1)
	testutil.ExpectEq(t, "payloads/Request",
		compilation.ExternalStructs[0].Name.FullyQualifiedName())
	testutil.ExpectTrue(t, len(all.Unused()) == 0)
}

func TestDuplicateOrdinals(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "")

	ok := compileFile(t, all, selection, &ast.File{
		Library: "example",
		Decls: []ast.Decl{
			{Kind: "union", Name: "U", Members: []ast.Member{
				{Name: "a", Ordinal: 1, Type: &ast.Type{Name: "uint32"}},
				{Name: "b", Ordinal: 1, Type: &ast.Type{Name: "uint32"}},
				{Name: "c", Ordinal: 0, Type: &ast.Type{Name: "uint32"}},
			}},
		},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3018, 3017}, errorCodes(reporter))

	var rendered strings.Builder
	for _, err := range reporter.Errors() {
		rendered.WriteString(err.Error())
		rendered.WriteString("\n")
	}
	testutil.ExpectNoDiff(t, ""+
		"E3018: Duplicate ordinal 1 in 'U'\n"+
		"E3017: Member 'c' must have an ordinal greater than zero\n",
		rendered.String())
}

func TestPlatformMustBeTargeted(t *testing.T) {
	t.Parallel()

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	selection := newSelection(t, "other", "1")

	ok := compileFile(t, all, selection, &ast.File{
		Library:    "test",
		Attributes: []ast.Attribute{attr("available", "added", "1")},
		Decls:      []ast.Decl{{Kind: "struct", Name: "S"}},
	})
	testutil.ExpectFalse(t, ok)
	testutil.ExpectSliceEq(t, []uint32{3005}, errorCodes(reporter))
}
