package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jacobarthurs/plantree/internal/plan"
)

var (
	sortKeyRe    = regexp.MustCompile(`^\s*((?:Sort|Presorted) Key):\s+(.*)`)
	sortMethodRe = regexp.MustCompile(`^(\s*)Sort Method:\s+(.*)\s+(Memory|Disk):\s+(?:(\S*)kB)\s*$`)
	timingRe     = regexp.MustCompile(`^(\s*)Timing:\s+(.*)$`)
	timingPartRe = regexp.MustCompile(`^(\S*)\s+(.*)$`)
	sortGroupsRe = regexp.MustCompile(`^\s*(\S+) Groups:\s+([0-9]*)\s+Sort Method[s]*:\s+(.*)\s+Average Memory:\s+(\S*)kB\s+Peak Memory:\s+(\S*)kB.*$`)
	listSepRe    = regexp.MustCompile(`\s*,\s*`)
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// extraParsers run in order against a detail line; the first that claims
// the line wins.
var extraParsers = []func(text string, n *plan.Node) (bool, error){
	parseSortKey,
	parseSortMethod,
	parseTiming,
	parseSortGroups,
}

func parseExtraInfo(text string, n *plan.Node) (bool, error) {
	for _, parse := range extraParsers {
		ok, err := parse(text, n)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func parseSortKey(text string, n *plan.Node) (bool, error) {
	m := sortKeyRe.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}
	keys := SplitBalanced(m[2], ',')
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	if m[1] == "Sort Key" {
		n.SortKey = keys
	} else {
		n.PresortedKey = keys
	}
	return true, nil
}

func parseSortMethod(text string, n *plan.Node) (bool, error) {
	m := sortMethodRe.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}
	n.SortMethod = strings.TrimSpace(m[2])
	n.SortSpaceType = m[3]
	n.SortSpaceUsed = parseInt(m[4])
	return true, nil
}

// parseTiming handles the JIT line, e.g.
// "Timing: Generation 0.340 ms, Inlining 0.000 ms, Total 2.414 ms".
func parseTiming(text string, n *plan.Node) (bool, error) {
	m := timingRe.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}
	n.Timing = make(map[string]float64)
	for _, part := range listSepRe.Split(m[2], -1) {
		pm := timingPartRe.FindStringSubmatch(part)
		if pm == nil {
			continue
		}
		if v := parseFloat(trimMs(pm[2])); v != nil {
			n.Timing[pm[1]] = *v
		}
	}
	return true, nil
}

// parseSortGroups handles incremental sort blocks, e.g.
// "Full-sort Groups: 312500  Sort Method: quicksort  Average Memory: 26kB  Peak Memory: 26kB".
func parseSortGroups(text string, n *plan.Node) (bool, error) {
	m := sortGroupsRe.FindStringSubmatch(text)
	if m == nil {
		return false, nil
	}

	groups := &plan.SortGroups{}
	if c := parseInt(m[2]); c != nil {
		groups.GroupCount = *c
	}
	for _, method := range strings.Split(m[3], ",") {
		groups.SortMethodsUsed = append(groups.SortMethodsUsed, strings.TrimSpace(method))
	}
	if avg := parseInt(m[4]); avg != nil {
		groups.AverageSpaceKB = *avg
	}
	if peak := parseInt(m[5]); peak != nil {
		groups.PeakSpaceKB = *peak
	}

	switch m[1] {
	case "Full-sort":
		n.FullSortGroups = groups
	case "Pre-sorted":
		n.PreSortedGroups = groups
	default:
		return false, errors.Wrapf(plan.ErrUnsupported, "sort groups kind %q", m[1])
	}
	return true, nil
}

// setGeneric stores a "Key: value" detail line as a property. Values that
// parse as finite numbers are stored as float64, and time keys are title-cased so
// "Planning time" and "Planning Time" land on the same property.
func setGeneric(n *plan.Node, key, value string) {
	value = trimMs(value)

	var v any = value
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		v = f
	}

	if strings.Contains(key, " runtime") || strings.Contains(key, " time") {
		key = titleCaser.String(key)
	}
	n.Set(key, v)
}

func trimMs(s string) string {
	return trailingUnitMs.ReplaceAllString(s, "")
}
