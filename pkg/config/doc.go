// Package config loads the agent's own settings file (workdir, log level,
// KV backend choice, the TCDB_OPTIMIZE_PERCENT default) from a small YAML
// document read once at CLI startup. It never expresses promises or policy
// — that stays the parser's job, external to this engine.
package config
