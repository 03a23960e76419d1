/*
cycle.go - Cycle index arithmetic

PURPOSE:
  Maps a calendar date to its 0-based position within a fixed-length rotation
  cycle, relative to a reference date. The rotation must be well-defined
  indefinitely into the past as well as the future, so the index uses
  floor-modulo: dates before the reference never produce a negative index.

EXAMPLE:
  With reference 2010-01-04 and cycle length 18:
    CycleIndex(ref, ref, 18)            == 0
    CycleIndex(ref+18d, ref, 18)        == 0   (periodicity)
    CycleIndex(ref-1d,  ref, 18)        == 17  (floor-modulo, not -1)

SEE ALSO:
  - fixed.go, custom.go: the providers driven by this index
*/
package schedule

// CycleIndex returns the 0-based position of date within a cycle of
// cycleLength days anchored at reference. cycleLength must be positive;
// that is a precondition enforced at pattern-validation time, not here.
func CycleIndex(date, reference TimePoint, cycleLength int) int {
	delta := DaysBetween(reference, date)
	return FloorMod(delta, cycleLength)
}

// FloorMod is the mathematical modulo: the result is always in [0, n) for
// positive n, regardless of the sign of x. Go's % operator truncates toward
// zero instead, which would yield negative indexes for pre-reference dates.
func FloorMod(x, n int) int {
	m := x % n
	if m < 0 {
		m += n
	}
	return m
}
