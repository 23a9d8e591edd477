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

// Package diag carries the diagnostic stream produced by compilation.
// Errors abort the affected library's pipeline; warnings never do. Defects
// in the compiler itself are panics, not diagnostics.
package diag

import (
	"fmt"

	"go.vidl-lang.org/vidl/flat"
)

type Error struct {
	code    uint32
	message string
	span    flat.Span
}

var _ error = (*Error)(nil)

func NewError(code uint32, message string, span flat.Span) *Error {
	return &Error{code: code, message: message, span: span}
}

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() flat.Span {
	return err.span
}

type Warning struct {
	code    uint32
	message string
	span    flat.Span
}

func NewWarning(code uint32, message string, span flat.Span) *Warning {
	return &Warning{code: code, message: message, span: span}
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Span() flat.Span {
	return w.span
}

// Reporter accumulates the diagnostics of one compilation run.
type Reporter struct {
	errors   []*Error
	warnings []*Warning
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Fail records an error and returns false, so call sites can report and
// propagate failure in one expression.
func (r *Reporter) Fail(err *Error) bool {
	r.errors = append(r.errors, err)
	return false
}

func (r *Reporter) Warn(w *Warning) {
	r.warnings = append(r.warnings, w)
}

func (r *Reporter) Errors() []*Error {
	return r.errors
}

func (r *Reporter) Warnings() []*Warning {
	return r.warnings
}

// Checkpoint captures the error count before a pipeline step runs. A step
// failed iff it recorded new errors, whether or not it ran to completion.
type Checkpoint struct {
	reporter  *Reporter
	numErrors int
}

func (r *Reporter) Checkpoint() Checkpoint {
	return Checkpoint{reporter: r, numErrors: len(r.errors)}
}

func (c Checkpoint) NoNewErrors() bool {
	return len(c.reporter.errors) == c.numErrors
}

// NewErrors returns the errors recorded since the checkpoint was taken.
func (c Checkpoint) NewErrors() []*Error {
	return c.reporter.errors[c.numErrors:]
}
