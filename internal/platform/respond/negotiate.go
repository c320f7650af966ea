package respond

import (
	"strconv"
	"strings"
)

// mediaRange is one parsed element of an Accept header.
type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

// parseAccept splits an Accept header into lower-cased media ranges. Invalid
// or out-of-range q values fall back to 1; when q repeats the last one wins.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mediaType := strings.ToLower(strings.TrimSpace(params[0]))
		typ, subtype, ok := strings.Cut(mediaType, "/")
		if !ok {
			subtype = "*"
		}
		mr := mediaRange{typ: strings.TrimSpace(typ), subtype: strings.TrimSpace(subtype), q: 1.0}
		for _, param := range params[1:] {
			key, value, found := strings.Cut(strings.TrimSpace(param), "=")
			if !found || strings.TrimSpace(strings.ToLower(key)) != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || q < 0 || q > 1 {
				q = 1.0
			}
			mr.q = q
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// specificity ranks how closely a range names the given suffix format
// ("json" or "cbor"); -1 means it does not match at all.
func (mr mediaRange) specificity(format string) int {
	switch {
	case mr.typ == "*" && mr.subtype == "*":
		return 0
	case mr.typ != "application":
		return -1
	case mr.subtype == "*":
		return 1
	case mr.subtype == "*+"+format:
		return 2
	case mr.subtype == format:
		return 3
	case mr.subtype == "problem+"+format:
		return 4
	default:
		return -1
	}
}

// preference returns the q value and specificity of the most specific range matching format.
func preference(ranges []mediaRange, format string) (float64, int) {
	bestQ, bestSpec := 0.0, -1
	for _, mr := range ranges {
		rank := mr.specificity(format)
		if rank > bestSpec {
			bestQ, bestSpec = mr.q, rank
		}
	}
	return bestQ, bestSpec
}

// selectFormat reports whether the Accept header prefers CBOR over JSON.
// The q value decides first and specificity breaks ties; JSON wins any
// remaining tie and is the default when nothing acceptable is named.
func selectFormat(accept string) bool {
	ranges := parseAccept(accept)
	if len(ranges) == 0 {
		return false
	}
	cborQ, cborSpec := preference(ranges, "cbor")
	jsonQ, jsonSpec := preference(ranges, "json")
	if cborSpec < 0 || cborQ == 0 {
		return false
	}
	if jsonSpec < 0 || jsonQ == 0 {
		return true
	}
	if cborQ != jsonQ {
		return cborQ > jsonQ
	}
	return cborSpec > jsonSpec
}
