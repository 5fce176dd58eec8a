package file

import (
	"os"
	"strings"

	"github.com/cfengine/promise-engine/pkg/types"
)

// LoadItemList reads path as a line-oriented item list, honoring the
// separator, comment character, and blank-line policy in defaults.
func LoadItemList(path string, defaults types.EditDefaults) (*types.ItemList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sep := defaults.LineSeparator
	if sep == "" {
		sep = "\n"
	}

	lines := strings.Split(string(data), sep)
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	list := &types.ItemList{}
	for _, line := range lines {
		if !defaults.EmptyLines && strings.TrimSpace(line) == "" {
			continue
		}
		if defaults.CommentChar != 0 && len(line) > 0 && line[0] == defaults.CommentChar {
			continue
		}
		list.Append(types.Item{Name: line})
	}
	return list, nil
}

// Diff is the result of comparing a desired item list against what's on
// disk.
type Diff struct {
	Equal   bool
	Adds    []string // present in the desired list but not on disk
	Removes []string // present on disk but not in the desired list
}

// CompareToFile loads path as an item list and compares it element-wise
// against want. When warnings is true it walks both lists to the end,
// collecting every add/remove for reporting; otherwise it stops at the
// first mismatch.
func CompareToFile(want []string, path string, defaults types.EditDefaults, warnings bool) (Diff, error) {
	list, err := LoadItemList(path, defaults)
	if err != nil {
		if os.IsNotExist(err) {
			list = &types.ItemList{}
		} else {
			return Diff{}, err
		}
	}
	return compareLists(want, itemNames(list), warnings), nil
}

func itemNames(l *types.ItemList) []string {
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.Name
	}
	return out
}

func compareLists(want, have []string, warnings bool) Diff {
	d := Diff{Equal: true}

	n := len(want)
	if len(have) > n {
		n = len(have)
	}

	for i := 0; i < n; i++ {
		var w, h string
		var wok, hok bool
		if i < len(want) {
			w, wok = want[i], true
		}
		if i < len(have) {
			h, hok = have[i], true
		}

		if wok && hok && w == h {
			continue
		}

		d.Equal = false
		if wok {
			d.Adds = append(d.Adds, w)
		}
		if hok {
			d.Removes = append(d.Removes, h)
		}
		if !warnings {
			return d
		}
	}
	return d
}
