package streets

import "strings"

const (
	// UnknownDistrict is returned when neither a rule nor the table knows the street.
	UnknownDistrict = "Unbekannter Bezirk"
	// UnresolvedDistrict is returned for a dedicated street whose number is
	// outside every range listed for it.
	UnresolvedDistrict = "Bezirk Unbekannt"
)

// Source tells where a district came from.
type Source string

const (
	SourceRule    Source = "rule"
	SourceTable   Source = "table"
	SourceUnknown Source = "unknown"
)

// Table is a normalized-name to district mapping supplied by the caller.
type Table interface {
	Lookup(key string) (string, bool)
}

// Input is one resolution request. Boxes are carried through untouched.
type Input struct {
	Street    string
	Number    string
	Table     Table
	StreetBox *BoundingBox
	NumberBox *BoundingBox
}

// Result is the resolved address. It is built fresh for every call.
type Result struct {
	Name      string       `json:"name"`
	Number    string       `json:"number,omitempty"`
	District  string       `json:"district,omitempty"`
	StreetBox *BoundingBox `json:"streetBox,omitempty"`
	NumberBox *BoundingBox `json:"numberBox,omitempty"`
	Source    Source       `json:"source"`
}

// Resolver applies a fixed, ordered rule set.
type Resolver struct {
	rules []Rule
}

// NewResolver copies rules; later edits to the slice do not leak in.
func NewResolver(rules []Rule) *Resolver {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Resolver{rules: copied}
}

// DefaultResolver uses DefaultRules.
func DefaultResolver() *Resolver {
	return NewResolver(DefaultRules())
}

// Rules returns a copy of the rule set in priority order.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Resolve maps a street and house number to a district. It never fails:
// malformed numbers parse to zero and unknown streets get UnknownDistrict.
func (r *Resolver) Resolve(in Input) Result {
	key := NormalizeStreetName(in.Street)
	number := ParseHouseNumber(in.Number)

	result := Result{
		Name:      in.Street,
		Number:    in.Number,
		StreetBox: in.StreetBox,
		NumberBox: in.NumberBox,
	}

	if rule, ok := r.match(key); ok {
		result.Name = rule.Name
		result.Source = SourceRule
		result.District = UnresolvedDistrict
		for _, rg := range rule.Ranges(number) {
			if rg.Contains(number) {
				result.District = rg.District
				break
			}
		}
		return result
	}

	if in.Table != nil {
		if district, ok := in.Table.Lookup(key); ok {
			if district == "" {
				district = UnresolvedDistrict
			}
			result.District = district
			result.Source = SourceTable
			return result
		}
	}

	result.District = UnknownDistrict
	result.Source = SourceUnknown
	return result
}

func (r *Resolver) match(key string) (Rule, bool) {
	for _, rule := range r.rules {
		if strings.Contains(key, rule.Marker) {
			return rule, true
		}
	}
	return Rule{}, false
}

var builtin = DefaultResolver()

// Resolve runs the built-in rules.
func Resolve(street, number string, table Table) Result {
	return builtin.Resolve(Input{Street: street, Number: number, Table: table})
}
