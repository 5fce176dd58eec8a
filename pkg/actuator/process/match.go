package process

import (
	"regexp"

	"github.com/cfengine/promise-engine/pkg/classes"
	"github.com/cfengine/promise-engine/pkg/types"
)

// Match filters table against the promiser regex and, when sel is set,
// against its sub-predicates combined by sel.CombineResult (empty means
// and every sub-predicate that was actually specified).
func Match(table []Entry, promiserRegex *regexp.Regexp, sel *types.ProcessSelect) ([]Entry, error) {
	var matched []Entry
	for _, e := range table {
		if !promiserRegex.MatchString(e.CmdLine) {
			continue
		}
		if sel == nil {
			matched = append(matched, e)
			continue
		}
		ok, err := evalSelect(e, sel)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func evalSelect(e Entry, sel *types.ProcessSelect) (bool, error) {
	results := make(map[string]bool)
	specified := make(map[string]bool)

	if sel.PIDRange != [2]int{0, 0} {
		specified["pid"] = true
		results["pid"] = inRange(e.PID, sel.PIDRange)
	}
	if sel.PPIDRange != [2]int{0, 0} {
		specified["ppid"] = true
		results["ppid"] = inRange(e.PPID, sel.PPIDRange)
	}
	if sel.RSSRangeKB != [2]int64{0, 0} {
		specified["rss"] = true
		results["rss"] = inRange64(e.RSSKB, sel.RSSRangeKB)
	}
	if sel.TTYRegex != "" {
		specified["tty"] = true
		ok, err := regexp.MatchString(sel.TTYRegex, e.TTY)
		if err != nil {
			return false, err
		}
		results["tty"] = ok
	}
	if sel.StateRegex != "" {
		specified["state"] = true
		ok, err := regexp.MatchString(sel.StateRegex, e.State)
		if err != nil {
			return false, err
		}
		results["state"] = ok
	}
	if sel.OwnerRegex != "" {
		specified["owner"] = true
		ok, err := regexp.MatchString(sel.OwnerRegex, e.Owner)
		if err != nil {
			return false, err
		}
		results["owner"] = ok
	}

	if len(specified) == 0 {
		return true, nil
	}

	if sel.CombineResult == "" {
		for name := range specified {
			if !results[name] {
				return false, nil
			}
		}
		return true, nil
	}

	return classes.Evaluate(sel.CombineResult, func(name string) bool { return results[name] })
}

func inRange(v int, r [2]int) bool      { return v >= r[0] && v <= r[1] }
func inRange64(v int64, r [2]int64) bool { return v >= r[0] && v <= r[1] }
