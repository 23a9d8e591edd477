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
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Manifest is a build manifest:
//
//	inputs = ["lib.json", "deps/payloads.json"]
//
//	available "fuchsia" {
//	  versions = ["12", head]
//	}
type Manifest struct {
	Inputs    []string         `hcl:"inputs"`
	Available []ManifestTarget `hcl:"available,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type ManifestTarget struct {
	Platform string   `hcl:"platform,label"`
	Versions []string `hcl:"versions"`
}

func (t *ManifestTarget) spec() string {
	return t.Platform + ":" + strings.Join(t.Versions, ",")
}

func loadManifest(path string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %s", path, diags.Error())
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"head":   cty.StringVal("HEAD"),
			"next":   cty.StringVal("NEXT"),
			"legacy": cty.StringVal("LEGACY"),
		},
	}
	manifest := &Manifest{}
	if diags := gohcl.DecodeBody(file.Body, evalCtx, manifest); diags.HasErrors() {
		return nil, fmt.Errorf("%s: %s", path, diags.Error())
	}
	return manifest, nil
}
