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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, str string) Version {
	t.Helper()
	v, ok := ParseVersion(str)
	require.True(t, ok, "ParseVersion(%q)", str)
	return v
}

// orderedVersions is every distinct kind of version, ascending.
func orderedVersions() []Version {
	return []Version{
		NegInf,
		Version{1},
		Version{2},
		Version{100},
		Version{maxNumeric},
		Next,
		Head,
		Legacy,
		PosInf,
	}
}

func TestVersionTotalOrder(t *testing.T) {
	vs := orderedVersions()
	for i, a := range vs {
		for j, b := range vs {
			cmp := a.Compare(b)
			switch {
			case i < j:
				require.Equal(t, -1, cmp, "%v < %v", a, b)
				require.True(t, a.Before(b))
			case i > j:
				require.Equal(t, 1, cmp, "%v > %v", a, b)
				require.False(t, a.AtOrBefore(b))
			default:
				require.Equal(t, 0, cmp, "%v == %v", a, b)
				require.True(t, a.AtOrBefore(b))
			}
		}
	}
}

func TestVersionFrom(t *testing.T) {
	_, ok := VersionFrom(0)
	require.False(t, ok)
	_, ok = VersionFrom(maxNumeric + 1)
	require.False(t, ok)

	v, ok := VersionFrom(1)
	require.True(t, ok)
	require.Equal(t, "1", v.String())

	v, ok = VersionFrom(maxNumeric)
	require.True(t, ok)
	n, ok := v.Number()
	require.True(t, ok)
	require.Equal(t, uint32(maxNumeric), n)

	for _, sentinel := range []Version{Next, Head, Legacy} {
		v, ok := VersionFrom(sentinel.value)
		require.True(t, ok)
		require.Equal(t, sentinel, v)
	}
}

func TestParseVersion(t *testing.T) {
	require.Equal(t, Version{12}, mustParse(t, "12"))
	require.Equal(t, Next, mustParse(t, "NEXT"))
	require.Equal(t, Head, mustParse(t, "HEAD"))
	require.Equal(t, Legacy, mustParse(t, "LEGACY"))

	for _, bad := range []string{"", "0", "head", "Head", "-1", "2147483648", "+inf", "-inf", "1.5"} {
		_, ok := ParseVersion(bad)
		require.False(t, ok, "ParseVersion(%q)", bad)
	}
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "-inf", NegInf.String())
	require.Equal(t, "+inf", PosInf.String())
	require.Equal(t, "NEXT", Next.String())
	require.Equal(t, "HEAD", Head.String())
	require.Equal(t, "LEGACY", Legacy.String())
	require.Equal(t, "42", Version{42}.String())
}

func TestPredecessorSuccessor(t *testing.T) {
	require.Equal(t, Version{1}, Version{2}.Predecessor())
	require.Equal(t, Version{3}, Version{2}.Successor())
	require.Equal(t, Version{maxNumeric}, Next.Predecessor())
	require.Equal(t, Next, Version{maxNumeric}.Successor())
	require.Equal(t, Next, Head.Predecessor())
	require.Equal(t, Head, Next.Successor())
	require.Equal(t, Head, Legacy.Predecessor())
	require.Equal(t, Legacy, Head.Successor())

	require.Panics(t, func() { NegInf.Predecessor() })
	require.Panics(t, func() { NegInf.Successor() })
	require.Panics(t, func() { PosInf.Predecessor() })
	require.Panics(t, func() { PosInf.Successor() })
	require.Panics(t, func() { Version{1}.Predecessor() })
	require.Panics(t, func() { Legacy.Successor() })
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("fuchsia")
	require.True(t, ok)
	require.Equal(t, "fuchsia", p.Name())
	require.False(t, p.IsUnversioned())

	_, ok = ParsePlatform("f2")
	require.True(t, ok)

	for _, bad := range []string{"", "Fuchsia", "2d", "foo.bar", "foo_bar", "foo-bar"} {
		_, ok := ParsePlatform(bad)
		require.False(t, ok, "ParsePlatform(%q)", bad)
	}

	require.True(t, Unversioned().IsUnversioned())
}

func TestRangeContains(t *testing.T) {
	r := NewRange(Version{2}, Version{5})
	require.False(t, r.Contains(Version{1}))
	require.True(t, r.Contains(Version{2}))
	require.True(t, r.Contains(Version{4}))
	require.False(t, r.Contains(Version{5}))
	require.False(t, r.Contains(NegInf))
	require.False(t, r.Contains(PosInf))

	all := NewRange(NegInf, PosInf)
	for _, v := range orderedVersions() {
		if v == PosInf {
			require.False(t, all.Contains(v))
		} else {
			require.True(t, all.Contains(v))
		}
	}

	// An empty interval contains nothing. The constructor refuses a == b, so
	// build the value directly.
	empty := Range{start: Version{3}, end: Version{3}}
	for _, v := range orderedVersions() {
		require.False(t, empty.Contains(v))
	}

	require.Panics(t, func() { NewRange(Version{3}, Version{3}) })
	require.Panics(t, func() { NewRange(Version{4}, Version{3}) })
}

func TestIntersectRanges(t *testing.T) {
	r := func(a, b uint32) *Range {
		rng := NewRange(Version{a}, Version{b})
		return &rng
	}

	require.Nil(t, IntersectRanges(nil, r(1, 2)))
	require.Nil(t, IntersectRanges(r(1, 2), nil))
	require.Nil(t, IntersectRanges(nil, nil))

	// Disjoint, including exactly adjacent.
	require.Nil(t, IntersectRanges(r(1, 3), r(3, 5)))
	require.Nil(t, IntersectRanges(r(3, 5), r(1, 3)))
	require.Nil(t, IntersectRanges(r(1, 2), r(4, 5)))

	got := IntersectRanges(r(1, 5), r(3, 8))
	require.NotNil(t, got)
	require.Equal(t, *r(3, 5), *got)

	// Nested.
	got = IntersectRanges(r(1, 10), r(4, 6))
	require.NotNil(t, got)
	require.Equal(t, *r(4, 6), *got)
}

func TestSetContains(t *testing.T) {
	s := NewSetWithSecond(
		NewRange(Version{2}, Version{5}),
		NewRange(Legacy, PosInf),
	)
	require.True(t, s.Contains(Version{3}))
	require.False(t, s.Contains(Version{5}))
	require.False(t, s.Contains(Head))
	require.True(t, s.Contains(Legacy))
}

func TestIntersectSets(t *testing.T) {
	legacyPiece := NewRange(Legacy, PosInf)
	a := NewSetWithSecond(NewRange(Version{1}, Version{5}), legacyPiece)
	b := NewSetWithSecond(NewRange(Version{3}, Version{8}), legacyPiece)
	c := NewSet(NewRange(Version{6}, Version{9}))

	require.Nil(t, IntersectSets(nil, &a))
	require.Nil(t, IntersectSets(&a, nil))
	require.Nil(t, IntersectSets(&a, &c))

	got := IntersectSets(&a, &b)
	require.NotNil(t, got)
	first, second := got.Ranges()
	require.Equal(t, NewRange(Version{3}, Version{5}), first)
	require.NotNil(t, second)
	require.Equal(t, legacyPiece, *second)

	// Commutative, and membership equals the pointwise conjunction.
	sets := []*Set{&a, &b, &c, nil}
	samples := append(orderedVersions(), Version{5}, Version{7})
	for _, lhs := range sets {
		for _, rhs := range sets {
			x := IntersectSets(lhs, rhs)
			y := IntersectSets(rhs, lhs)
			for _, v := range samples {
				want := lhs != nil && rhs != nil && lhs.Contains(v) && rhs.Contains(v)
				require.Equal(t, want, x != nil && x.Contains(v), "%v ∩ %v at %v", lhs, rhs, v)
				require.Equal(t, want, y != nil && y.Contains(v), "%v ∩ %v at %v", rhs, lhs, v)
			}
		}
	}
}

func TestSelection(t *testing.T) {
	fuchsia, _ := ParsePlatform("fuchsia")
	other, _ := ParsePlatform("other")

	s := NewSelection()
	require.True(t, s.Insert(fuchsia, []Version{Version{12}}))
	require.False(t, s.Insert(fuchsia, []Version{Version{13}}))
	require.True(t, s.Insert(other, []Version{Version{5}, Head}))

	require.True(t, s.Contains(fuchsia))
	require.Equal(t, Version{12}, s.Lookup(fuchsia))
	require.Equal(t, Head, s.Lookup(Unversioned()))
	// A multi-version selection resolves to the LEGACY stand-in.
	require.Equal(t, Legacy, s.Lookup(other))
	require.Equal(t, []Version{Version{5}, Head}, s.LookupSet(other))
	require.Equal(t, []Version{Head}, s.LookupSet(Unversioned()))

	missing, _ := ParsePlatform("missing")
	require.False(t, s.Contains(missing))
	require.Panics(t, func() { s.Lookup(missing) })
	require.Panics(t, func() { s.Insert(Unversioned(), []Version{Head}) })
	require.Panics(t, func() { s.Insert(missing, nil) })
	require.Panics(t, func() { s.Insert(missing, []Version{Legacy}) })
	require.Panics(t, func() { s.Insert(missing, []Version{Version{1}, Version{2}}) })
}
