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
	"strings"
)

// Ending describes how an element's availability window closes.
type Ending uint8

const (
	// EndingNone means the element is never removed.
	EndingNone Ending = iota
	// EndingRemoved means the element is removed outright.
	EndingRemoved
	// EndingReplaced means the element is swapped for a replacement defined
	// at the removal version.
	EndingReplaced
	// EndingSplit means narrowing truncated the window before the element's
	// true removal.
	EndingSplit
	// EndingInherited means the window closes because the parent's does.
	EndingInherited
)

// LegacyState records whether a removed element is re-added in the legacy
// window [Legacy, +inf).
type LegacyState uint8

const (
	// LegacyNotApplicable: the element is not removed, so legacy status is
	// meaningless.
	LegacyNotApplicable LegacyState = iota
	LegacyNo
	LegacyYes
)

type availabilityState uint8

const (
	stateUnset availabilityState = iota
	stateInitialized
	stateInherited
	stateNarrowed
	stateFailed
)

// Availability tracks when a declaration element exists on its platform's
// timeline. Operations must follow the lifecycle
//
//	Unset -> Initialized -> Inherited -> Narrowed
//
// with Failed as the terminal state for malformed or contradictory input.
// Calling an operation in the wrong state is a programming error and panics.
//
// Invariant in every state past Initialized:
//
//	added <= (deprecated or added) < (removed or +inf)
type Availability struct {
	added      *Version
	deprecated *Version
	removed    *Version
	ending     *Ending
	legacy     *LegacyState
	state      availabilityState
}

// Unbounded is the inheritance root: present on [-inf, +inf), never ending.
func Unbounded() Availability {
	added := NegInf
	removed := PosInf
	ending := EndingNone
	legacy := LegacyNotApplicable
	return Availability{
		added:   &added,
		removed: &removed,
		ending:  &ending,
		legacy:  &legacy,
		state:   stateInherited,
	}
}

// InitArgs are the resolved values of an element's availability annotation.
// Fields left nil are inherited later.
type InitArgs struct {
	Added      *Version
	Deprecated *Version
	Removed    *Version
	Replaced   bool
}

// Fail marks an availability whose raw annotation was malformed before any
// fields could be set. Only legal in the Unset state.
func (a *Availability) Fail() {
	if a.state != stateUnset {
		panic("version: called Fail in the wrong order")
	}
	a.state = stateFailed
}

// Init sets the explicitly annotated fields and validates their ordering.
// Returns false (and transitions to Failed) if the ordering invariant does
// not hold. Sentinel values other than Next and Head must be rejected by the
// caller first.
func (a *Availability) Init(args InitArgs) bool {
	if a.state != stateUnset {
		panic("version: called Init in the wrong order")
	}
	if args.Replaced && args.Removed == nil {
		panic("version: cannot set replaced without removed")
	}
	for _, v := range []*Version{args.Added, args.Deprecated, args.Removed} {
		if v != nil && (*v == NegInf || *v == PosInf || *v == Legacy) {
			panic("version: sentinel not allowed in Init")
		}
	}
	a.added = args.Added
	a.deprecated = args.Deprecated
	a.removed = args.Removed
	if args.Removed != nil {
		ending := EndingRemoved
		if args.Replaced {
			ending = EndingReplaced
		}
		a.ending = &ending
	}
	valid := a.validOrder()
	if valid {
		a.state = stateInitialized
	} else {
		a.state = stateFailed
	}
	return valid
}

func (a *Availability) validOrder() bool {
	added := NegInf
	if a.added != nil {
		added = *a.added
	}
	deprecated := added
	if a.deprecated != nil {
		deprecated = *a.deprecated
	}
	removed := PosInf
	if a.removed != nil {
		removed = *a.removed
	}
	return added.AtOrBefore(deprecated) && deprecated.Before(removed)
}

// InheritStatus reports how one explicitly annotated field relates to the
// parent's window.
type InheritStatus uint8

const (
	InheritOK InheritStatus = iota
	BeforeParentAdded
	AfterParentRemoved
	AfterParentDeprecated
)

// InheritResult aggregates per-field validation statuses. The caller decides
// whether to abort on failure.
type InheritResult struct {
	Added      InheritStatus
	Deprecated InheritStatus
	Removed    InheritStatus
}

func (r InheritResult) Ok() bool {
	return r.Added == InheritOK && r.Deprecated == InheritOK && r.Removed == InheritOK
}

// Inherit resolves unset fields from parent and validates explicitly set
// ones against the parent's window. Requires the receiver Initialized and
// the parent already Inherited. On success the receiver becomes Inherited,
// otherwise Failed.
func (a *Availability) Inherit(parent *Availability) InheritResult {
	if a.state != stateInitialized {
		panic("version: called Inherit in the wrong order")
	}
	if parent.state != stateInherited {
		panic("version: must call Inherit on parent first")
	}
	var result InheritResult
	// Inherit and validate `added`.
	if a.added == nil {
		a.added = parent.added
	} else if a.added.Before(*parent.added) {
		result.Added = BeforeParentAdded
	} else if parent.removed.AtOrBefore(*a.added) {
		result.Added = AfterParentRemoved
	}
	// Inherit and validate `removed`.
	if a.removed == nil {
		a.removed = parent.removed
	} else if a.removed.AtOrBefore(*parent.added) {
		result.Removed = BeforeParentAdded
	} else if parent.removed.Before(*a.removed) {
		result.Removed = AfterParentRemoved
	}
	// Inherit and validate `deprecated`.
	if a.deprecated == nil {
		// Only inherit deprecation if it occurs before this element is
		// removed. The annotation
		//
		//	@available(added=1, deprecated=5, removed=10)
		//	type Foo = struct {
		//	    @available(added=7)
		//	    bar bool;
		//	};
		//
		// would otherwise give bar a deprecation point before its own start,
		// so the inherited point is clamped to the child's `added`.
		if parent.deprecated != nil && parent.deprecated.Before(*a.removed) {
			deprecated := *parent.deprecated
			if deprecated.Before(*a.added) {
				deprecated = *a.added
			}
			a.deprecated = &deprecated
		}
	} else if a.deprecated.Before(*parent.added) {
		result.Deprecated = BeforeParentAdded
	} else if parent.removed.AtOrBefore(*a.deprecated) {
		result.Deprecated = AfterParentRemoved
	} else if parent.deprecated != nil && parent.deprecated.Before(*a.deprecated) {
		result.Deprecated = AfterParentDeprecated
	}
	// Inherit and validate `ending`.
	if a.ending == nil {
		ending := EndingInherited
		if *parent.ending == EndingNone {
			ending = EndingNone
		}
		a.ending = &ending
	} else if *a.ending == EndingReplaced && *a.removed == *parent.removed {
		// A replacement at the parent's own removal version can never take
		// effect.
		result.Removed = AfterParentRemoved
	}
	// Inherit `legacy`.
	if a.legacy != nil {
		panic("version: legacy cannot be set before Inherit")
	}
	if *a.removed == *parent.removed {
		// Only inherit if the parent is removed at the same time. An element
		// removed earlier than its parent must not reappear in the parent's
		// legacy window: at LEGACY the parent should look exactly as it did
		// just before removal.
		a.legacy = parent.legacy
	} else {
		if *a.removed == PosInf {
			panic("version: child cannot outlive a removed parent")
		}
		legacy := LegacyNo
		a.legacy = &legacy
	}

	if result.Ok() {
		if a.added == nil || a.removed == nil || a.ending == nil || a.legacy == nil {
			panic("version: Inherit left a field unresolved")
		}
		if *a.added == NegInf {
			panic("version: added must be finite after Inherit")
		}
		if !a.validOrder() {
			panic("version: Inherit broke the ordering invariant")
		}
		a.state = stateInherited
	} else {
		a.state = stateFailed
	}
	return result
}

// SetLegacy marks a removed element as re-added in the legacy window.
// Requires Inherited state and a finite `removed`.
func (a *Availability) SetLegacy() {
	if a.state != stateInherited {
		panic("version: called SetLegacy in the wrong order")
	}
	if a.legacy == nil {
		panic("version: legacy should be set by Inherit")
	}
	if *a.removed == PosInf {
		panic("version: called SetLegacy for non-removed element")
	}
	legacy := LegacyYes
	a.legacy = &legacy
}

// Narrow projects the availability onto one concrete window: either a
// sub-interval of [added, removed), or exactly the legacy window
// [Legacy, +inf) when the element is present at LEGACY.
func (a *Availability) Narrow(r Range) {
	if a.state != stateInherited {
		panic("version: called Narrow in the wrong order")
	}
	start, end := r.Start(), r.End()
	if start == Legacy {
		if end != PosInf {
			panic("version: legacy range must be [LEGACY, +inf)")
		}
		if *a.legacy == LegacyNo {
			panic("version: must be present at LEGACY")
		}
	} else {
		if start.Before(*a.added) || a.removed.Before(end) {
			panic("version: must narrow to a subrange")
		}
	}
	if end == PosInf {
		ending := EndingNone
		a.ending = &ending
	} else if *a.removed != end {
		ending := EndingSplit
		a.ending = &ending
	}
	a.added = &start
	a.removed = &end
	if a.deprecated != nil && a.deprecated.AtOrBefore(start) {
		a.deprecated = &start
	} else {
		a.deprecated = nil
	}
	var legacy LegacyState
	if start.AtOrBefore(Legacy) && Legacy.Before(end) {
		legacy = LegacyNotApplicable
	} else {
		legacy = LegacyNo
	}
	a.legacy = &legacy
	a.state = stateNarrowed
}

// Range returns the narrowed window. Only valid after Narrow.
func (a *Availability) Range() Range {
	if a.state != stateNarrowed {
		panic("version: Range requires narrowed availability")
	}
	return NewRange(*a.added, *a.removed)
}

// IsDeprecated reports whether the narrowed window starts at or after the
// element's deprecation point. Only valid after Narrow.
func (a *Availability) IsDeprecated() bool {
	if a.state != stateNarrowed {
		panic("version: IsDeprecated requires narrowed availability")
	}
	return a.deprecated != nil
}

// Ending is valid in the Inherited and Narrowed states.
func (a *Availability) Ending() Ending {
	if a.state != stateInherited && a.state != stateNarrowed {
		panic("version: Ending requires inherited availability")
	}
	return *a.ending
}

// Added is valid in the Inherited and Narrowed states.
func (a *Availability) Added() Version {
	if a.state != stateInherited && a.state != stateNarrowed {
		panic("version: Added requires inherited availability")
	}
	return *a.added
}

// Removed is valid in the Inherited and Narrowed states.
func (a *Availability) Removed() Version {
	if a.state != stateInherited && a.state != stateNarrowed {
		panic("version: Removed requires inherited availability")
	}
	return *a.removed
}

// Set returns the full membership set: the window [added, removed) plus the
// legacy piece when the element is re-added at LEGACY. Valid in the
// Inherited and Narrowed states.
func (a *Availability) Set() Set {
	if a.state != stateInherited && a.state != stateNarrowed {
		panic("version: Set requires inherited availability")
	}
	r := NewRange(*a.added, *a.removed)
	if *a.legacy == LegacyYes {
		return NewSetWithSecond(r, NewRange(Legacy, PosInf))
	}
	return NewSet(r)
}

// Points returns the sorted breakpoints of the availability: added, removed,
// the deprecation point if any, and the legacy window bounds when the
// element is re-added at LEGACY. Valid in the Inherited and Narrowed states.
func (a *Availability) Points() []Version {
	if a.state != stateInherited && a.state != stateNarrowed {
		panic("version: Points requires inherited availability")
	}
	points := []Version{*a.added, *a.removed}
	if a.deprecated != nil {
		points = append(points, *a.deprecated)
	}
	if *a.legacy == LegacyYes {
		points = append(points, Legacy, PosInf)
	}
	slices.SortFunc(points, Version.Compare)
	return slices.Compact(points)
}

// Failed reports whether the availability reached the terminal failure
// state.
func (a *Availability) Failed() bool {
	return a.state == stateFailed
}

// Debug formats the raw fields for diagnostics and tests, e.g. "1 2 _ no".
func (a *Availability) Debug() string {
	var sb strings.Builder
	for i, v := range []*Version{a.added, a.deprecated, a.removed} {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if v == nil {
			sb.WriteByte('_')
		} else {
			sb.WriteString(v.String())
		}
	}
	sb.WriteByte(' ')
	switch {
	case a.legacy == nil:
		sb.WriteByte('_')
	case *a.legacy == LegacyNotApplicable:
		sb.WriteString("n/a")
	case *a.legacy == LegacyNo:
		sb.WriteString("no")
	default:
		sb.WriteString("yes")
	}
	return sb.String()
}
