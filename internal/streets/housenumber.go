package streets

import (
	"regexp"
	"strconv"
	"strings"
)

var houseNumberPattern = regexp.MustCompile(`^([0-9]+)([a-zA-Z]*)$`)

// HouseNumber is a parsed house number such as 71a.
type HouseNumber struct {
	Num    int    `json:"num"`
	Suffix string `json:"suffix"`
}

// ParseHouseNumber splits "71a" into {71, "a"}. Anything that is not digits
// followed by optional ASCII letters, including the empty string and digit
// runs too long for an int, yields the zero HouseNumber.
func ParseHouseNumber(raw string) HouseNumber {
	m := houseNumberPattern.FindStringSubmatch(raw)
	if m == nil {
		return HouseNumber{}
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return HouseNumber{}
	}
	return HouseNumber{Num: num, Suffix: strings.ToLower(m[2])}
}

// String renders the number back into its compact form.
func (h HouseNumber) String() string {
	return strconv.Itoa(h.Num) + h.Suffix
}

// IsEven reports the side of the street. The zero value counts as even.
func (h HouseNumber) IsEven() bool {
	return h.Num%2 == 0
}

// Compare orders by number, then by suffix byte order, so 2 < 2a < 2c < 3.
func (h HouseNumber) Compare(other HouseNumber) int {
	switch {
	case h.Num < other.Num:
		return -1
	case h.Num > other.Num:
		return 1
	}
	return strings.Compare(h.Suffix, other.Suffix)
}

// LessOrEqual reports h <= other.
func (h HouseNumber) LessOrEqual(other HouseNumber) bool {
	return h.Compare(other) <= 0
}

// GreaterOrEqual reports h >= other.
func (h HouseNumber) GreaterOrEqual(other HouseNumber) bool {
	return h.Compare(other) >= 0
}
