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

// Package compiler turns raw declaration trees into finished, versioned
// libraries. One Compiler instance compiles one library against a shared
// registry of already-finished libraries and a version selection; the
// registry's Filter projects the result onto a single-version snapshot.
package compiler

import (
	"go.vidl-lang.org/vidl/ast"
	"go.vidl-lang.org/vidl/diag"
	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/version"
)

// Compiler compiles one library. Files are consumed first, then Compile runs
// the pipeline and, on success, moves the finished library into the
// registry.
type Compiler struct {
	all       *Libraries
	selection *version.Selection
	reporter  *diag.Reporter

	library *flat.Library

	// Set by resolveReferences.
	declsByName map[string][]flat.Decl

	// Recorded by applyAvailability, checked by applyReplacements: the
	// version each named element is added at, and the elements whose
	// removal promises a replacement.
	addedPoints map[string][]version.Version
	replaced    []replacedElement
}

type replacedElement struct {
	name    string
	removed version.Version
	span    flat.Span
}

func NewCompiler(all *Libraries, selection *version.Selection) *Compiler {
	return &Compiler{
		all:         all,
		selection:   selection,
		reporter:    all.Reporter(),
		library:     &flat.Library{},
		addedPoints: make(map[string][]version.Version),
	}
}

// Library returns the in-progress library. It is frozen once Compile
// succeeds.
func (c *Compiler) Library() *flat.Library {
	return c.library
}

// Compile runs the pipeline over the consumed files. Each step runs under a
// diagnostic checkpoint: a step failed iff it recorded new errors, and the
// first failed step halts the pipeline. On success the finished library is
// inserted into the registry; insertion itself can fail recoverably on a
// duplicate library name.
func (c *Compiler) Compile() bool {
	steps := []func(){
		c.applyAvailability,
		c.resolveReferences,
		c.compileDecls,
		c.computeTypeShapes,
		c.applyReplacements,
		c.verifyResourceness,
		c.verifyHandleTransports,
		c.verifyAttributes,
		c.verifyDependencies,
	}
	for _, step := range steps {
		checkpoint := c.reporter.Checkpoint()
		step()
		if !checkpoint.NoNewErrors() {
			return false
		}
	}
	return c.all.Insert(c.library)
}

// ConsumeFile lowers one parsed file into the in-progress library. Every
// file of a multi-file library must declare the same library name.
func (c *Compiler) ConsumeFile(file *ast.File) bool {
	checkpoint := c.reporter.Checkpoint()
	c.consumeFile(file)
	return checkpoint.NoNewErrors()
}
