package engine

import (
	"regexp"
	"sort"
	"strconv"
)

// paramAssignRe matches simple "name = number" lines in strategy source.
// This is the same best-effort heuristic used for trigger reasons: it can
// miss parameters spelled any other way, and that is acceptable.
var paramAssignRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_]\w*)[ \t]*=[ \t]*(-?\d+(?:\.\d+)?)[ \t]*$`)

// extractParams scans strategy source for numeric assignments and
// synthesizes a candidate neighborhood around each value, bucketed by
// magnitude. Non-positive values are skipped; every sensible tunable in
// this domain (periods, thresholds, multipliers) is positive.
func extractParams(source string) map[string][]float64 {
	out := make(map[string][]float64)
	for _, m := range paramAssignRe.FindAllStringSubmatch(source, -1) {
		name := m[1]
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil || v <= 0 {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = neighborhood(v)
	}
	return out
}

func neighborhood(v float64) []float64 {
	var candidates []float64
	switch {
	case v < 1:
		candidates = []float64{v * 0.5, v, v * 1.5}
	case v < 10:
		candidates = []float64{v - 1, v, v + 1}
	case v < 100:
		candidates = []float64{v - 5, v, v + 5}
	default:
		candidates = []float64{v * 0.8, v, v * 1.2}
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c > 0 {
			out = append(out, c)
		}
	}
	return out
}

// rewriteParams replaces the numeric literal of each named assignment in
// the source. Names absent from the source are left alone.
func rewriteParams(source string, params map[string]float64) string {
	for name, value := range params {
		re := regexp.MustCompile(`(?m)^([ \t]*` + regexp.QuoteMeta(name) + `[ \t]*=[ \t]*)-?\d+(?:\.\d+)?`)
		source = re.ReplaceAllString(source, "${1}"+formatParam(value))
	}
	return source
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// cartesian enumerates every combination of the given ranges. Parameter
// names are iterated in sorted order so combination order is deterministic.
func cartesian(ranges map[string][]float64) []map[string]float64 {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		if len(ranges[name]) == 0 {
			return nil
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}

	total := 1
	for _, name := range names {
		total *= len(ranges[name])
	}

	combos := make([]map[string]float64, 0, total)
	idx := make([]int, len(names))
	for {
		combo := make(map[string]float64, len(names))
		for i, name := range names {
			combo[name] = ranges[name][idx[i]]
		}
		combos = append(combos, combo)

		// Odometer increment, least significant position last.
		pos := len(names) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(ranges[names[pos]]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return combos
		}
	}
}
