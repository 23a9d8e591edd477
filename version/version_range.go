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

package version

// Range is the half-open interval [Start, End).
type Range struct {
	start Version
	end   Version
}

// NewRange requires start < end.
func NewRange(start, end Version) Range {
	if !start.Before(end) {
		panic("version: range start must be before end")
	}
	return Range{start: start, end: end}
}

func (r Range) Start() Version { return r.start }

func (r Range) End() Version { return r.end }

func (r Range) Contains(v Version) bool {
	return r.start.AtOrBefore(v) && v.Before(r.end)
}

func (r Range) String() string {
	return "[" + r.start.String() + ", " + r.end.String() + ")"
}

// IntersectRanges returns nil if either input is nil or the ranges are
// disjoint.
func IntersectRanges(lhs, rhs *Range) *Range {
	if lhs == nil || rhs == nil {
		return nil
	}
	if lhs.end.AtOrBefore(rhs.start) || rhs.end.AtOrBefore(lhs.start) {
		return nil
	}
	start := lhs.start
	if start.Before(rhs.start) {
		start = rhs.start
	}
	end := lhs.end
	if rhs.end.Before(end) {
		end = rhs.end
	}
	result := NewRange(start, end)
	return &result
}

// Set is one primary Range plus an optional second, disjoint range. The
// second piece only ever holds the legacy reintroduction window
// [Legacy, +inf).
type Set struct {
	first  Range
	second *Range
}

func NewSet(first Range) Set {
	return Set{first: first}
}

func NewSetWithSecond(first, second Range) Set {
	return Set{first: first, second: &second}
}

// Ranges returns the primary piece and the optional second piece.
func (s Set) Ranges() (Range, *Range) {
	return s.first, s.second
}

func (s Set) Contains(v Version) bool {
	return s.first.Contains(v) || (s.second != nil && s.second.Contains(v))
}

func (s Set) String() string {
	if s.second == nil {
		return s.first.String()
	}
	return s.first.String() + " + " + s.second.String()
}

// IntersectSets returns nil if either input is nil or the sets are disjoint.
// It panics if the pointwise intersection has more than two pieces, which is
// impossible for well-formed inputs (the second piece is always the legacy
// window).
func IntersectSets(lhs, rhs *Set) *Set {
	if lhs == nil || rhs == nil {
		return nil
	}
	var z1, z2 *Range
	x1 := &lhs.first
	y1 := &rhs.first
	for _, piece := range []*Range{
		IntersectRanges(x1, y1),
		IntersectRanges(x1, rhs.second),
		IntersectRanges(lhs.second, y1),
		IntersectRanges(lhs.second, rhs.second),
	} {
		switch {
		case piece == nil:
		case z1 == nil:
			z1 = piece
		case z2 == nil:
			z2 = piece
		default:
			panic("version: set intersection is more than two pieces")
		}
	}
	if z1 == nil {
		if z2 != nil {
			panic("version: second piece without first")
		}
		return nil
	}
	return &Set{first: *z1, second: z2}
}
