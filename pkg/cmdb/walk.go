package cmdb

import (
	"fmt"
	"strings"
)

// hasVarRefSyntax reports whether s contains the "$(" or "${" token that
// marks an unresolved variable reference — the CMDB layer must contain
// only fully resolved data, per spec.md §4.K.
func hasVarRefSyntax(s string) bool {
	return strings.Contains(s, "$(") || strings.Contains(s, "${")
}

// checkResolved walks key and every string found in val (nested maps,
// arrays, and the value itself), rejecting the first one that contains
// variable-reference syntax.
func checkResolved(key string, val any) error {
	if hasVarRefSyntax(key) {
		return fmt.Errorf("cmdb: key %q contains variable-reference syntax", key)
	}
	return checkValueResolved(val)
}

func checkValueResolved(val any) error {
	switch v := val.(type) {
	case string:
		if hasVarRefSyntax(v) {
			return fmt.Errorf("cmdb: value %q contains variable-reference syntax", v)
		}
	case []any:
		for _, e := range v {
			if err := checkValueResolved(e); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, e := range v {
			if hasVarRefSyntax(k) {
				return fmt.Errorf("cmdb: nested key %q contains variable-reference syntax", k)
			}
			if err := checkValueResolved(e); err != nil {
				return err
			}
		}
	}
	return nil
}
