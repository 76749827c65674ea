package extract

import (
	"iter"
	"regexp"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

// word, optional '=', ':' or '-' separator, integer or decimal literal
var rePair = regexp.MustCompile(`([\p{L}\p{M}]+)[ \t]*[=:\-]?[ \t]*(\d+(?:\.\d+)?)`)

// ExtractPairs yields every (word, adjacent number) occurrence in raw. The set
// is intentionally noisy; consumers treat it as candidates.
func ExtractPairs(raw string) iter.Seq[entity.LabelValuePair] {
	return func(yield func(entity.LabelValuePair) bool) {
		for i, g := range rePair.FindAllStringSubmatch(raw, -1) {
			if !yield(entity.LabelValuePair{Position: i, Label: g[1], Value: g[2]}) {
				return
			}
		}
	}
}
