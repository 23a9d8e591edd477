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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"go.vidl-lang.org/vidl/ast"
	"go.vidl-lang.org/vidl/compiler"
	"go.vidl-lang.org/vidl/diag"
	"go.vidl-lang.org/vidl/flat"
	"go.vidl-lang.org/vidl/version"
)

type cmdCompile struct {
	outPath      string
	manifestPath string
	available    []string
	verbose      bool
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [--available PLATFORM:VERSION]... AST_JSON...",
		summary: "Compile parsed library files into a versioned snapshot",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Write the snapshot to this path instead of stdout")
	flags.StringVar(&cmd.manifestPath, "manifest", "", "Read inputs and target versions from an HCL manifest")
	flags.StringArrayVar(&cmd.available, "available", nil, "Target PLATFORM:VERSION[,VERSION...]")
	flags.BoolVarP(&cmd.verbose, "verbose", "v", false, "Log compilation progress")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	logLevel := slog.LevelWarn
	if cmd.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	inputs := argv
	available := cmd.available
	if cmd.manifestPath != "" {
		manifest, err := loadManifest(cmd.manifestPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		inputs = append(manifest.Inputs, inputs...)
		for _, target := range manifest.Available {
			available = append(available, target.spec())
		}
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "No input files (pass AST_JSON paths or --manifest)")
		return 1
	}

	selection, err := parseSelection(available)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	reporter := diag.NewReporter()
	all := compiler.NewLibraries(reporter)
	ok := true
	for _, path := range inputs {
		logger.DebugContext(ctx, "compiling", "path", path)
		file, err := loadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		c := compiler.NewCompiler(all, selection)
		if !c.ConsumeFile(file) || !c.Compile() {
			logger.DebugContext(ctx, "compilation failed", "library", file.Library)
			ok = false
			break
		}
	}

	if !ok {
		for _, warning := range reporter.Warnings() {
			fmt.Fprintln(os.Stderr, warning.String())
		}
		for _, err := range reporter.Errors() {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		return 1
	}

	// Filter reports unused-library and deprecation warnings, so print
	// after it runs.
	compilation := all.Filter(selection)
	for _, warning := range reporter.Warnings() {
		fmt.Fprintln(os.Stderr, warning.String())
	}
	snapshot := buildSnapshot(compilation)
	encoded, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	encoded = append(encoded, '\n')
	if cmd.outPath == "" {
		os.Stdout.Write(encoded)
		return 0
	}
	if err := os.WriteFile(cmd.outPath, encoded, 0o666); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadFile(path string) (*ast.File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file := &ast.File{}
	if err := json.Unmarshal(buf, file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// parseSelection interprets --available flags: "fuchsia:12" or
// "fuchsia:12,HEAD".
func parseSelection(available []string) (*version.Selection, error) {
	selection := version.NewSelection()
	for _, target := range available {
		platformName, versionNames, ok := strings.Cut(target, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --available %q (want PLATFORM:VERSION)", target)
		}
		platform, ok := version.ParsePlatform(platformName)
		if !ok || platform.IsUnversioned() {
			return nil, fmt.Errorf("invalid platform %q", platformName)
		}
		var versions []version.Version
		for _, name := range strings.Split(versionNames, ",") {
			v, ok := version.ParseVersion(name)
			if !ok || v == version.Legacy {
				return nil, fmt.Errorf("invalid version %q for platform %q", name, platformName)
			}
			versions = append(versions, v)
		}
		if len(versions) > 1 && !containsHead(versions) {
			return nil, fmt.Errorf("platform %q targets multiple versions, so HEAD must be one of them", platformName)
		}
		if !selection.Insert(platform, versions) {
			return nil, fmt.Errorf("duplicate --available for platform %q", platformName)
		}
	}
	return selection, nil
}

func containsHead(versions []version.Version) bool {
	for _, v := range versions {
		if v == version.Head {
			return true
		}
	}
	return false
}

// Snapshot is the JSON shape written for downstream code generators.
type Snapshot struct {
	Library         string            `json:"library"`
	Version         string            `json:"version"`
	Declarations    []SnapshotDecl    `json:"declarations"`
	ExternalStructs []string          `json:"external_structs,omitempty"`
	Dependencies    []SnapshotLibrary `json:"dependencies,omitempty"`
}

type SnapshotLibrary struct {
	Library      string         `json:"library"`
	Declarations []SnapshotDecl `json:"declarations"`
}

type SnapshotDecl struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Size        uint32 `json:"size,omitempty"`
	Alignment   uint32 `json:"alignment,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
	Synthesized bool   `json:"synthesized,omitempty"`
}

func buildSnapshot(compilation *compiler.Compilation) Snapshot {
	snapshot := Snapshot{
		Library:      compilation.Library.Library.Name,
		Version:      compilation.Version.String(),
		Declarations: snapshotDecls(compilation.Library.Declarations),
	}
	for _, external := range compilation.ExternalStructs {
		snapshot.ExternalStructs = append(snapshot.ExternalStructs,
			external.Name.FullyQualifiedName())
	}
	for _, dep := range compilation.Dependencies {
		snapshot.Dependencies = append(snapshot.Dependencies, SnapshotLibrary{
			Library:      dep.Library.Name,
			Declarations: snapshotDecls(dep.Declarations),
		})
	}
	return snapshot
}

func snapshotDecls(decls []flat.Decl) []SnapshotDecl {
	var out []SnapshotDecl
	for _, decl := range decls {
		base := decl.Base()
		out = append(out, SnapshotDecl{
			Kind:        flat.DeclKindName(decl),
			Name:        base.Name.FullyQualifiedName(),
			Size:        base.TypeShape.InlineSize,
			Alignment:   base.TypeShape.Alignment,
			Deprecated:  base.Availability.IsDeprecated(),
			Synthesized: base.Synthesized,
		})
	}
	return out
}
