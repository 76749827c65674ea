package extract

import (
	"regexp"
	"strconv"
	"time"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

// Tier names the cascade step that produced a DateInterval.
type Tier int

const (
	TierNone Tier = iota
	TierLabeled
	TierCombined
	TierGeneric
)

func (t Tier) String() string {
	switch t {
	case TierLabeled:
		return "labeled"
	case TierCombined:
		return "combined"
	case TierGeneric:
		return "generic"
	default:
		return "none"
	}
}

// DateInterval is the extracted validity range. Either side may be nil.
type DateInterval struct {
	Start *entity.Date
	End   *entity.Date
	Tier  Tier
}

// Found reports whether at least one date was recovered.
func (d DateInterval) Found() bool { return d.Start != nil || d.End != nil }

// Complete reports whether both dates were recovered.
func (d DateInterval) Complete() bool { return d.Start != nil && d.End != nil }

// Interval returns the range when Complete.
func (d DateInterval) Interval() (entity.Interval, bool) {
	if !d.Complete() {
		return entity.Interval{}, false
	}
	return entity.Interval{Start: *d.Start, End: *d.End}, true
}

// dd/mm/yyyy, also with '-' or '.' separators
const dateLiteral = `(\d{2})[/.\-](\d{2})[/.\-](\d{4})`

var (
	reStartLabeled = regexp.MustCompile(`data\s*de\s*inicio\s*:?\s*` + dateLiteral + `\b`)
	reEndLabeled   = regexp.MustCompile(`(?:conclusao\s*)?efetiva\s*:?\s*` + dateLiteral + `\b`)
	reCombined     = regexp.MustCompile(`(?s)inicio\D{0,40}?` + dateLiteral + `.{0,400}?efetiva\D{0,40}?` + dateLiteral + `\b`)
	reBareDate     = regexp.MustCompile(`\b` + dateLiteral + `\b`)
)

// dateMatch is the per-tier result: ok false means NoMatch.
type dateMatch struct {
	start, end *entity.Date
	ok         bool
}

type dateStrategy struct {
	tier  Tier
	match func(canonical string) dateMatch
}

// Ordered by decreasing specificity; the first strategy that matches wins.
var dateCascade = []dateStrategy{
	{tier: TierLabeled, match: matchLabeled},
	{tier: TierCombined, match: matchCombined},
	{tier: TierGeneric, match: matchGeneric},
}

// ExtractInterval recovers the start/end dates from raw OCR text. It never
// fails: a text with no recognizable date yields a zero DateInterval.
func ExtractInterval(raw string) DateInterval {
	canonical := Normalize(raw)
	for _, s := range dateCascade {
		if m := s.match(canonical); m.ok {
			return DateInterval{Start: m.start, End: m.end, Tier: s.tier}
		}
	}
	return DateInterval{}
}

func matchLabeled(text string) dateMatch {
	var m dateMatch
	if g := reStartLabeled.FindStringSubmatch(text); g != nil {
		m.start = parseDMY(g[1], g[2], g[3])
	}
	if g := reEndLabeled.FindStringSubmatch(text); g != nil {
		m.end = parseDMY(g[1], g[2], g[3])
	}
	m.ok = m.start != nil || m.end != nil
	return m
}

func matchCombined(text string) dateMatch {
	g := reCombined.FindStringSubmatch(text)
	if g == nil {
		return dateMatch{}
	}
	start := parseDMY(g[1], g[2], g[3])
	end := parseDMY(g[4], g[5], g[6])
	if start == nil || end == nil {
		return dateMatch{}
	}
	return dateMatch{start: start, end: end, ok: true}
}

func matchGeneric(text string) dateMatch {
	var found []*entity.Date
	for _, g := range reBareDate.FindAllStringSubmatch(text, -1) {
		if d := parseDMY(g[1], g[2], g[3]); d != nil {
			found = append(found, d)
			if len(found) == 2 {
				break
			}
		}
	}
	switch len(found) {
	case 0:
		return dateMatch{}
	case 1:
		return dateMatch{start: found[0], ok: true}
	default:
		return dateMatch{start: found[0], end: found[1], ok: true}
	}
}

// parseDMY returns nil for out-of-range literals.
func parseDMY(day, month, year string) *entity.Date {
	d, err1 := strconv.Atoi(day)
	m, err2 := strconv.Atoi(month)
	y, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	date, ok := entity.NewDate(y, time.Month(m), d)
	if !ok {
		return nil
	}
	return &date
}
