package pointsto

import (
	log "github.com/sirupsen/logrus"
)

// debugChecks enables internal consistency checks. Violations are bugs in
// the analysis and panic.
var debugChecks = false

func panicf(format string, args ...any) {
	log.Panicf(format, args...)
}

// assertValid checks the shape invariants of v.
func assertValid(v *Value) {
	if !debugChecks {
		return
	}
	switch v.kind {
	case KindKnownLocations:
		if len(v.locations) == 0 {
			panicf("empty location set in %v", v)
		}
		for i := 1; i < len(v.locations); i++ {
			if v.locations[i-1].id >= v.locations[i].id {
				panicf("unsorted location set in %v", v)
			}
		}
	case KindNoLocation:
		if v != NoLocationValue {
			panicf("non-canonical NoLocation value %p", v)
		}
	case KindNullLocation:
		if v != NullLocationValue {
			panicf("non-canonical NullLocation value %p", v)
		}
	case KindKnownLValueCaptures:
		if len(v.captures) == 0 {
			panicf("empty capture set")
		}
	}
}

// assertData checks every value of d.
func assertData(d *AnalysisData) {
	if !debugChecks || d == nil {
		return
	}
	for e, v := range d.All() {
		assertValid(v)
		if !e.ShouldBeTracked() && v.kind != KindNoLocation && v.kind != KindInvalid {
			panicf("untracked entity %v maps to %v", e, v)
		}
	}
}
