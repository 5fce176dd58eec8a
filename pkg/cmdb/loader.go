package cmdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cfengine/promise-engine/pkg/classes"
	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/cfengine/promise-engine/pkg/vars"
)

// MaxDocumentBytes caps the size of a CMDB document, per spec.md §4.K.
const MaxDocumentBytes = 5 * 1024 * 1024

// Load reads the CMDB document at path and installs its vars/classes
// entries into table and ctx. A missing file is not an error — the CMDB
// layer is entirely optional — but a present, oversized, malformed, or
// invalid document is, matching spec.md §7's "Validation" failure class
// (the caller should treat that as the CMDB-load promise's own
// Interrupted outcome).
func Load(path string, table *vars.Table, ctx *classes.Context) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CMDBIngestDuration)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cmdb: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxDocumentBytes+1))
	if err != nil {
		return fmt.Errorf("cmdb: read %s: %w", path, err)
	}
	if len(data) > MaxDocumentBytes {
		metrics.CMDBRejectedTotal.WithLabelValues("too_large").Inc()
		return fmt.Errorf("cmdb: %s exceeds the %d byte cap", path, MaxDocumentBytes)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		metrics.CMDBRejectedTotal.WithLabelValues("malformed_json").Inc()
		return fmt.Errorf("cmdb: parse %s: %w", path, err)
	}

	logger := log.WithComponent("cmdb")
	for key := range top {
		if key != "vars" && key != "classes" {
			logger.Warn().Str("key", key).Msg("cmdb: ignoring unknown top-level key")
		}
	}

	if raw, ok := top["vars"]; ok {
		if err := loadVars(raw, table); err != nil {
			metrics.CMDBRejectedTotal.WithLabelValues("vars").Inc()
			return err
		}
	}
	if raw, ok := top["classes"]; ok {
		if err := loadClasses(raw, ctx); err != nil {
			metrics.CMDBRejectedTotal.WithLabelValues("classes").Inc()
			return err
		}
	}
	return nil
}

func loadVars(raw json.RawMessage, table *vars.Table) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("cmdb: \"vars\" must be an object: %w", err)
	}
	for key, valRaw := range entries {
		if err := installVar(table, key, valRaw); err != nil {
			return err
		}
	}
	return nil
}

func installVar(table *vars.Table, rawKey string, raw json.RawMessage) error {
	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		return fmt.Errorf("cmdb: vars entry %q: %w", rawKey, err)
	}
	if err := checkResolved(rawKey, val); err != nil {
		return err
	}

	namespace, scope, lvalIdx, hasNS, hasScope := splitVarsKey(rawKey)
	switch {
	case hasNS && !hasScope:
		return fmt.Errorf("cmdb: vars key %q has a namespace but no scope", rawKey)
	case !hasNS && hasScope:
		namespace = "cmdb"
	case !hasNS && !hasScope:
		namespace = "cmdb"
		scope = "variables"
	}

	ref, err := vars.Parse(namespace + ":" + scope + "." + lvalIdx)
	if err != nil {
		return fmt.Errorf("cmdb: vars key %q: %w", rawKey, err)
	}

	rval, typ := toRVal(val)
	table.Put(ref, rval, typ, nil, "")
	return nil
}

func loadClasses(raw json.RawMessage, ctx *classes.Context) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("cmdb: \"classes\" must be an object: %w", err)
	}
	for key, valRaw := range entries {
		if err := installClass(ctx, key, valRaw); err != nil {
			return err
		}
	}
	return nil
}

func installClass(ctx *classes.Context, rawKey string, raw json.RawMessage) error {
	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		return fmt.Errorf("cmdb: classes entry %q: %w", rawKey, err)
	}
	if err := checkResolved(rawKey, val); err != nil {
		return err
	}

	valid := false
	switch v := val.(type) {
	case string:
		valid = v == "any::"
	case []any:
		if len(v) == 1 {
			s, ok := v[0].(string)
			valid = ok && s == "any::"
		}
	}
	if !valid {
		return fmt.Errorf(`cmdb: classes entry %q must be "any::" or ["any::"]`, rawKey)
	}

	namespace, name, hasNS := splitClassKey(rawKey)
	if !hasNS {
		namespace = "cmdb"
	}
	ctx.Define(namespace+":"+classes.Canonify(name), types.ClassScopeNamespace, "", map[string]struct{}{"source=cmdb": {}})
	return nil
}

// toRVal converts a decoded JSON value into the RVal/VariableType pair
// the Variable Table expects: a string, number, boolean or null becomes a
// scalar (null as the empty string), a list whose every element is a
// string becomes a string-list, everything else (objects, and arrays with
// any non-string element) becomes an opaque container — matching spec.md §4.K's "everything else" catch-all.
func toRVal(val any) (types.RVal, types.VariableType) {
	switch v := val.(type) {
	case string:
		return types.ScalarRVal(v), types.TypeScalar
	case []any:
		if strs, ok := asStringSlice(v); ok {
			return types.ListRVal(strs...), types.TypeStringList
		}
		return types.RVal{Kind: types.RValContainer, Container: v}, types.TypeContainer
	case float64:
		return types.ScalarRVal(formatJSONNumber(v)), types.TypeScalar
	case bool:
		return types.ScalarRVal(strconv.FormatBool(v)), types.TypeScalar
	case nil:
		return types.ScalarRVal(""), types.TypeScalar
	default:
		return types.RVal{Kind: types.RValContainer, Container: v}, types.TypeContainer
	}
}

func asStringSlice(v []any) ([]string, bool) {
	out := make([]string, len(v))
	for i, e := range v {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func formatJSONNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
