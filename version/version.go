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

// Package version models platform version timelines: points on a timeline,
// half-open ranges and two-piece sets over them, per-element availability
// lifecycles, and the query-time selection of target versions.
package version

import (
	"strconv"
)

// Platform names one version timeline. Declarations grouped under the same
// platform evolve together.
type Platform struct {
	name string
}

const unversionedName = "unversioned"

// ParsePlatform validates a platform identifier: an ASCII lowercase letter
// followed by lowercase letters or digits.
func ParsePlatform(name string) (Platform, bool) {
	if !isValidPlatformName(name) {
		return Platform{}, false
	}
	return Platform{name: name}, true
}

// Unversioned returns the reserved platform whose declarations always
// resolve to the Head version.
func Unversioned() Platform {
	return Platform{name: unversionedName}
}

func (p Platform) Name() string { return p.name }

func (p Platform) IsUnversioned() bool { return p.name == unversionedName }

func isValidPlatformName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}

// Version is a point on a platform timeline. The zero value is NegInf.
//
// Ordering, low to high:
//
//	NegInf < 1 .. 2^31-1 < Next < Head < Legacy < PosInf
type Version struct {
	value uint32
}

// Reserved encodings for the non-numeric versions. Everything in
// [1, maxNumeric] is an ordinary numeric version.
const (
	negInfValue = 0
	maxNumeric  = 1<<31 - 1
	nextValue   = 0xFFD0_0000
	headValue   = 0xFFE0_0000
	legacyValue = 0xFFF0_0000
	posInfValue = 0xFFFF_FFFF
)

var (
	NegInf = Version{negInfValue}
	Next   = Version{nextValue}
	Head   = Version{headValue}
	Legacy = Version{legacyValue}
	PosInf = Version{posInfValue}
)

// specialVersions is the sentinel chain between the numeric range and
// PosInf, in ascending order.
var specialVersions = [...]Version{Next, Head, Legacy}

// VersionFrom converts a raw number to a Version. Zero and numbers outside
// [1, 2^31-1] are rejected unless they match a sentinel's reserved encoding.
func VersionFrom(number uint32) (Version, bool) {
	for _, v := range specialVersions {
		if number == v.value {
			return v, true
		}
	}
	if number == 0 || number > maxNumeric {
		return Version{}, false
	}
	return Version{value: number}, true
}

// ParseVersion parses decimal text or a case-exact sentinel name.
func ParseVersion(str string) (Version, bool) {
	if str == "" {
		return Version{}, false
	}
	for _, v := range specialVersions {
		if str == v.Name() {
			return v, true
		}
	}
	number, err := strconv.ParseUint(str, 10, 32)
	if err != nil {
		return Version{}, false
	}
	return VersionFrom(uint32(number))
}

// Name returns the sentinel name of a special version. It panics on numeric
// and infinite versions.
func (v Version) Name() string {
	switch v.value {
	case nextValue:
		return "NEXT"
	case headValue:
		return "HEAD"
	case legacyValue:
		return "LEGACY"
	default:
		panic("version: expected a special version")
	}
}

func (v Version) String() string {
	switch v.value {
	case negInfValue:
		return "-inf"
	case posInfValue:
		return "+inf"
	case nextValue, headValue, legacyValue:
		return v.Name()
	default:
		return strconv.FormatUint(uint64(v.value), 10)
	}
}

// Number returns the numeric value of an ordinary version.
func (v Version) Number() (uint32, bool) {
	if v.value >= 1 && v.value <= maxNumeric {
		return v.value, true
	}
	return 0, false
}

// Compare returns -1, 0, or +1 as v sorts below, equal to, or above other.
func (v Version) Compare(other Version) int {
	switch {
	case v.value < other.value:
		return -1
	case v.value > other.value:
		return 1
	default:
		return 0
	}
}

func (v Version) Before(other Version) bool { return v.value < other.value }

func (v Version) AtOrBefore(other Version) bool { return v.value <= other.value }

// Predecessor steps down through the numeric range and the sentinel chain.
// It panics on NegInf, PosInf, and the lowest version of either span.
func (v Version) Predecessor() Version {
	if v == NegInf || v == PosInf || v.value == 1 {
		panic("version: no predecessor")
	}
	if v == specialVersions[0] {
		return Version{maxNumeric}
	}
	for i := 1; i < len(specialVersions); i++ {
		if v == specialVersions[i] {
			return specialVersions[i-1]
		}
	}
	return Version{v.value - 1}
}

// Successor steps up through the numeric range and the sentinel chain. It
// panics on NegInf, PosInf, and the highest sentinel.
func (v Version) Successor() Version {
	if v == NegInf || v == PosInf || v == specialVersions[len(specialVersions)-1] {
		panic("version: no successor")
	}
	if v.value == maxNumeric {
		return specialVersions[0]
	}
	for i := 0; i < len(specialVersions)-1; i++ {
		if v == specialVersions[i] {
			return specialVersions[i+1]
		}
	}
	return Version{v.value + 1}
}
