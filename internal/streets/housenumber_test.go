package streets

import (
	"sort"
	"strconv"
	"testing"
)

func TestParseHouseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want HouseNumber
	}{
		{"71a", HouseNumber{71, "a"}},
		{"2C", HouseNumber{2, "c"}},
		{"12", HouseNumber{12, ""}},
		{"007", HouseNumber{7, ""}},
		{"", HouseNumber{}},
		{"12 a", HouseNumber{}},
		{"12-14", HouseNumber{}},
		{"a12", HouseNumber{}},
		{"١٢", HouseNumber{}},
		{"12ä", HouseNumber{}},
		{"99999999999999999999999", HouseNumber{}},
	}

	for _, tc := range cases {
		if got := ParseHouseNumber(tc.in); got != tc.want {
			t.Fatalf("ParseHouseNumber(%q): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseHouseNumberRoundTrip(t *testing.T) {
	suffixes := []string{"", "a", "b", "zz"}
	for num := 0; num <= 200; num += 7 {
		for _, suffix := range suffixes {
			want := HouseNumber{Num: num, Suffix: suffix}
			if got := ParseHouseNumber(strconv.Itoa(num) + suffix); got != want {
				t.Fatalf("round trip of %+v returned %+v", want, got)
			}
		}
	}
}

func TestCompareOrdersByNumberThenSuffix(t *testing.T) {
	numbers := []HouseNumber{{3, ""}, {2, "c"}, {2, ""}, {10, ""}, {2, "a"}, {1, "b"}}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i].Compare(numbers[j]) < 0 })

	want := []HouseNumber{{1, "b"}, {2, ""}, {2, "a"}, {2, "c"}, {3, ""}, {10, ""}}
	for i := range want {
		if numbers[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], numbers[i])
		}
	}
}

func TestLessAndGreaterOrEqualAreConsistent(t *testing.T) {
	values := []HouseNumber{{0, ""}, {2, ""}, {2, "a"}, {2, "c"}, {44, "b"}, {71, "a"}, {71, "b"}}
	for _, a := range values {
		for _, b := range values {
			if a.LessOrEqual(b) != b.GreaterOrEqual(a) {
				t.Fatalf("LessOrEqual(%v,%v) disagrees with GreaterOrEqual", a, b)
			}
			if !a.LessOrEqual(b) && !b.LessOrEqual(a) {
				t.Fatalf("%v and %v are not comparable", a, b)
			}
			if a.LessOrEqual(b) && b.LessOrEqual(a) && a != b {
				t.Fatalf("%v and %v compare equal but differ", a, b)
			}
		}
	}
}
