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
	"slices"
)

// Selection maps each platform to the versions a compilation targets. The
// unversioned platform is implicit and always resolves to Head.
type Selection struct {
	targets map[Platform][]Version
}

func NewSelection() *Selection {
	return &Selection{targets: make(map[Platform][]Version)}
}

// Insert registers the target versions for a platform. The set must be
// non-empty, must not contain Legacy, and when it holds more than one
// version it must include Head. Returns false if the platform was already
// registered.
func (s *Selection) Insert(platform Platform, versions []Version) bool {
	if platform.IsUnversioned() {
		panic("version: selection cannot contain 'unversioned'")
	}
	if len(versions) == 0 {
		panic("version: cannot select an empty set of versions")
	}
	sorted := slices.Clone(versions)
	slices.SortFunc(sorted, Version.Compare)
	sorted = slices.Compact(sorted)
	if slices.Contains(sorted, Legacy) {
		panic("version: targeting LEGACY is not allowed")
	}
	if len(sorted) > 1 && !slices.Contains(sorted, Head) {
		panic("version: HEAD must be included when targeting multiple versions")
	}
	if _, ok := s.targets[platform]; ok {
		return false
	}
	s.targets[platform] = sorted
	return true
}

func (s *Selection) Contains(platform Platform) bool {
	if platform.IsUnversioned() {
		panic("version: selection cannot contain 'unversioned'")
	}
	_, ok := s.targets[platform]
	return ok
}

// Lookup resolves a platform to the single version a filter query targets:
// Head for the unversioned platform, the sole target when exactly one was
// supplied, and otherwise Legacy as a stand-in for "all selected versions".
// The stand-in is a compatibility workaround, not a stable contract.
func (s *Selection) Lookup(platform Platform) Version {
	if platform.IsUnversioned() {
		return Head
	}
	versions, ok := s.targets[platform]
	if !ok {
		panic("version: no version was inserted for platform '" + platform.Name() + "'")
	}
	if len(versions) == 1 {
		return versions[0]
	}
	return Legacy
}

var onlyHead = []Version{Head}

// LookupSet returns every target version for a platform, in ascending order.
func (s *Selection) LookupSet(platform Platform) []Version {
	if platform.IsUnversioned() {
		return onlyHead
	}
	versions, ok := s.targets[platform]
	if !ok {
		panic("version: no version was inserted for platform '" + platform.Name() + "'")
	}
	return versions
}
