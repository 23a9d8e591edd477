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

	"go.vidl-lang.org/vidl/diag"
	"go.vidl-lang.org/vidl/flat"
)

func warnAttributeTypo(got, suggestion string, span flat.Span) *diag.Warning {
	return diag.NewWarning(4000, fmt.Sprintf(
		"Unknown attribute '%s', did you mean '%s'?", got, suggestion), span)
}

func warnUnusedLibrary(name string) *diag.Warning {
	return diag.NewWarning(4001, fmt.Sprintf(
		"Library %q is registered but not reachable from the target library",
		name), flat.Span{})
}

func warnDeprecatedElement(name string, span flat.Span) *diag.Warning {
	return diag.NewWarning(4002, fmt.Sprintf(
		"'%s' is deprecated at every selected version", name), span)
}
