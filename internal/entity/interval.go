package entity

// Interval is a closed date range. Start may be after End when the source text
// was inconsistent; Overlaps evaluates such intervals on [min, max].
type Interval struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Normalized returns the interval with Start <= End.
func (i Interval) Normalized() Interval {
	if i.Start.After(i.End) {
		return Interval{Start: i.End, End: i.Start}
	}
	return i
}

// Inverted reports whether Start is after End.
func (i Interval) Inverted() bool {
	return i.Start.After(i.End)
}

// Overlaps reports whether [a,b] and [c,d] share at least one date:
// a <= d && c <= b, inclusive at both ends and symmetric in argument order.
func (i Interval) Overlaps(o Interval) bool {
	x, y := i.Normalized(), o.Normalized()
	return !x.Start.After(y.End) && !y.Start.After(x.End)
}

// Contains reports whether d falls within the interval.
func (i Interval) Contains(d Date) bool {
	return i.Overlaps(Interval{Start: d, End: d})
}
