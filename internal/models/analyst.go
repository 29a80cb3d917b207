package models

import (
	"fmt"
	"sort"
)

// AnalystKind identifies one analyst role in the fan-out round. The set is
// closed: selection is configurable, membership is not.
type AnalystKind string

const (
	AnalystMarket       AnalystKind = "market"
	AnalystFundamentals AnalystKind = "fundamentals"
	AnalystNews         AnalystKind = "news"
	AnalystSocial       AnalystKind = "social"
	AnalystChinaMarket  AnalystKind = "china_market"
)

// AllAnalysts returns every known analyst kind in stable order.
func AllAnalysts() []AnalystKind {
	return []AnalystKind{
		AnalystMarket,
		AnalystFundamentals,
		AnalystNews,
		AnalystSocial,
		AnalystChinaMarket,
	}
}

// ParseAnalyst maps a configuration string onto an AnalystKind.
func ParseAnalyst(s string) (AnalystKind, error) {
	for _, k := range AllAnalysts() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown analyst kind %q", s)
}

// ParseAnalysts parses a list of analyst names, rejecting duplicates.
func ParseAnalysts(names []string) ([]AnalystKind, error) {
	seen := make(map[AnalystKind]bool, len(names))
	kinds := make([]AnalystKind, 0, len(names))
	for _, name := range names {
		k, err := ParseAnalyst(name)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, fmt.Errorf("analyst %q selected twice", name)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// SortAnalysts orders kinds alphabetically, for stable reporting.
func SortAnalysts(kinds []AnalystKind) {
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
}

// DisplayName returns the human-readable role name used in reports.
func (k AnalystKind) DisplayName() string {
	switch k {
	case AnalystMarket:
		return "Market Analyst"
	case AnalystFundamentals:
		return "Fundamentals Analyst"
	case AnalystNews:
		return "News Analyst"
	case AnalystSocial:
		return "Social Media Analyst"
	case AnalystChinaMarket:
		return "China Market Analyst"
	default:
		return string(k)
	}
}
