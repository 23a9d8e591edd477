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

// Package ast is the raw declaration tree handed over by an external
// parser. It is deliberately plain data: names are unresolved strings and
// availability annotations are uninterpreted attribute arguments. The
// compiler's consume pass lowers it into the flat model.
package ast

// File is one parsed library file.
type File struct {
	Library    string      `json:"library"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Decls      []Decl      `json:"decls"`
}

// DeclKind enumerates the strings accepted in Decl.Kind.
var DeclKinds = []string{
	"alias", "bits", "const", "enum", "newtype", "overlay",
	"protocol", "resource", "service", "struct", "table", "union",
}

type Decl struct {
	Kind       string      `json:"kind"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes,omitempty"`

	// Layouts marked `resource` may contain handles.
	Resource bool `json:"resource,omitempty"`

	// bits, enum, resource: the underlying subtype.
	Subtype *Type `json:"subtype,omitempty"`

	// const, alias, newtype.
	Type  *Type  `json:"type,omitempty"`
	Value *Value `json:"value,omitempty"`

	// struct, table, union, overlay, bits, enum, service.
	Members []Member `json:"members,omitempty"`

	// resource.
	Properties []Member `json:"properties,omitempty"`

	// protocol.
	Compose []Compose `json:"compose,omitempty"`
	Methods []Method  `json:"methods,omitempty"`

	Span Span `json:"span,omitempty"`
}

type Member struct {
	Name       string      `json:"name"`
	Ordinal    uint32      `json:"ordinal,omitempty"`
	Type       *Type       `json:"type,omitempty"`
	Value      *Value      `json:"value,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Span       Span        `json:"span,omitempty"`
}

type Compose struct {
	Protocol string `json:"protocol"`
	Span     Span   `json:"span,omitempty"`
}

type Method struct {
	Name        string      `json:"name"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	HasRequest  bool        `json:"has_request,omitempty"`
	Request     *Type       `json:"request,omitempty"`
	HasResponse bool        `json:"has_response,omitempty"`
	Response    *Type       `json:"response,omitempty"`
	HasError    bool        `json:"has_error,omitempty"`
	Error       *Type       `json:"error,omitempty"`
	Span        Span        `json:"span,omitempty"`
}

// Type is one unresolved type use.
type Type struct {
	// Name is a local name, a builtin, or "library.name/Decl".
	Name string `json:"name"`

	Size     *Value `json:"size,omitempty"`
	Protocol *Value `json:"protocol,omitempty"`
	Element  *Type  `json:"element,omitempty"`
	Box      *Type  `json:"box,omitempty"`
	Span     Span   `json:"span,omitempty"`
}

// Value is one unresolved constant expression.
type Value struct {
	Literal   string `json:"literal,omitempty"`
	Reference string `json:"reference,omitempty"`

	Op    string `json:"op,omitempty"`
	Left  *Value `json:"left,omitempty"`
	Right *Value `json:"right,omitempty"`

	Span Span `json:"span,omitempty"`
}

type Attribute struct {
	Name string `json:"name"`
	Args []Arg  `json:"args,omitempty"`
	Span Span   `json:"span,omitempty"`
}

type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Span  Span   `json:"span,omitempty"`
}

type Span struct {
	File  string `json:"file,omitempty"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}
