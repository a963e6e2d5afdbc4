package streets

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML layout of a replacement rule set:
//
//	rules:
//	  - marker: rheinblick
//	    name: Rheinblick
//	    odd:
//	      - {match: number, from: "1", to: "19", district: Bezirk 8}
//	    even:
//	      - {match: exact, from: "12a", district: Bezirk 7}
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Marker string       `yaml:"marker"`
	Name   string       `yaml:"name"`
	Odd    []rangeEntry `yaml:"odd"`
	Even   []rangeEntry `yaml:"even"`
}

type rangeEntry struct {
	Match    Match  `yaml:"match"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	District string `yaml:"district"`
}

// LoadRules decodes a YAML rule set. Order in the file is priority order.
func LoadRules(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file ruleFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule file has no rules")
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, entry := range file.Rules {
		rule := Rule{
			Marker: entry.Marker,
			Name:   entry.Name,
			Odd:    convertRanges(entry.Odd),
			Even:   convertRanges(entry.Even),
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRulesFile reads LoadRules input from disk.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadRules(f)
}

func convertRanges(entries []rangeEntry) []Range {
	out := make([]Range, 0, len(entries))
	for _, e := range entries {
		rg := Range{
			Match:    e.Match,
			From:     ParseHouseNumber(e.From),
			To:       ParseHouseNumber(e.To),
			District: e.District,
		}
		if rg.Match == MatchExact {
			rg.To = rg.From
		}
		out = append(out, rg)
	}
	return out
}
