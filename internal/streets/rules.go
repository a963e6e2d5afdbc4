package streets

import "fmt"

// Match selects how a Range compares a house number.
type Match string

const (
	// MatchNumber compares only the numeric part, From.Num <= n <= To.Num.
	MatchNumber Match = "number"
	// MatchSpan compares number and suffix, From <= n <= To.
	MatchSpan Match = "span"
	// MatchExact requires number and suffix to equal From.
	MatchExact Match = "exact"
	// MatchAny accepts every number on that side of the street.
	MatchAny Match = "any"
)

// Range assigns a district to a stretch of house numbers.
type Range struct {
	Match    Match
	From     HouseNumber
	To       HouseNumber
	District string
}

// Contains reports whether n falls in the range.
func (r Range) Contains(n HouseNumber) bool {
	switch r.Match {
	case MatchNumber:
		return n.Num >= r.From.Num && n.Num <= r.To.Num
	case MatchSpan:
		return n.GreaterOrEqual(r.From) && n.LessOrEqual(r.To)
	case MatchExact:
		return n == r.From
	case MatchAny:
		return true
	}
	return false
}

func (r Range) validate() error {
	switch r.Match {
	case MatchNumber, MatchSpan:
		if r.From.Compare(r.To) > 0 {
			return fmt.Errorf("range %s-%s is inverted", r.From, r.To)
		}
	case MatchExact, MatchAny:
	default:
		return fmt.Errorf("unknown match %q", r.Match)
	}
	if r.District == "" {
		return fmt.Errorf("range without district")
	}
	return nil
}

// Rule is the dedicated handling of one street. Marker is searched as a
// substring of the normalized name; Odd and Even are tried in order and
// the first containing range wins.
type Rule struct {
	Marker string
	Name   string
	Odd    []Range
	Even   []Range
}

// Ranges returns the side of the street n lives on.
func (r Rule) Ranges(n HouseNumber) []Range {
	if n.IsEven() {
		return r.Even
	}
	return r.Odd
}

// Validate checks a rule for obvious data errors.
func (r Rule) Validate() error {
	if r.Marker == "" || r.Name == "" {
		return fmt.Errorf("rule needs marker and name")
	}
	for _, side := range [][]Range{r.Odd, r.Even} {
		for _, rg := range side {
			if err := rg.validate(); err != nil {
				return fmt.Errorf("rule %s: %w", r.Marker, err)
			}
		}
	}
	return nil
}

func number(from, to int, district string) Range {
	return Range{Match: MatchNumber, From: HouseNumber{Num: from}, To: HouseNumber{Num: to}, District: district}
}

func span(from, to HouseNumber, district string) Range {
	return Range{Match: MatchSpan, From: from, To: to, District: district}
}

func exact(n HouseNumber, district string) Range {
	return Range{Match: MatchExact, From: n, To: n, District: district}
}

func otherwise(district string) Range {
	return Range{Match: MatchAny, District: district}
}

func hn(num int, suffix string) HouseNumber {
	return HouseNumber{Num: num, Suffix: suffix}
}

// DefaultRules returns the built-in street boundaries in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Marker: "gereonstr",
			Name:   "Gereonstraße",
			Odd:    []Range{number(1, 3, "Bezirk 1"), otherwise("Bezirk 2")},
			Even:   []Range{span(hn(2, ""), hn(2, "c"), "Bezirk 1"), otherwise("Bezirk 2")},
		},
		{
			Marker: "konrad-adenauer",
			Name:   "Konrad-Adenauer-Straße",
			Odd: []Range{
				span(hn(1, ""), hn(71, "a"), "Bezirk 1"),
				span(hn(75, ""), hn(151, ""), "Bezirk 3"),
			},
			Even: []Range{
				span(hn(4, ""), hn(44, "b"), "Bezirk 1"),
				span(hn(46, ""), hn(134, ""), "Bezirk 3"),
			},
		},
		{
			Marker: "oberdorfstr",
			Name:   "Oberdorfstraße",
			Odd:    []Range{number(1, 21, "Bezirk 7")},
			Even:   []Range{number(2, 18, "Bezirk 7")},
		},
		// 12a sits across the boundary from the rest of 2-12, so it is
		// listed before the general even range.
		{
			Marker: "rheinblick",
			Name:   "Rheinblick",
			Odd:    []Range{number(1, 19, "Bezirk 8"), number(21, 25, "Bezirk 7")},
			Even:   []Range{exact(hn(12, "a"), "Bezirk 7"), number(2, 12, "Bezirk 8")},
		},
		{
			Marker: "rolandstr",
			Name:   "Rolandstraße",
			Odd:    []Range{span(hn(1, ""), hn(7, "b"), "Bezirk 1"), number(11, 27, "Bezirk 1")},
			Even:   []Range{number(2, 20, "Bezirk 1")},
		},
	}
}
