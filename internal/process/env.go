package process

import (
	"runtime"
	"sort"
	"strings"
)

// MergeEnv returns base with the entries of overrides applied on top.
//
// An override with an empty value is treated as absent: it is skipped and the
// inherited variable, if any, is kept. Overrides are appended in key order so
// the result is deterministic.
func MergeEnv(base []string, overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for k, v := range overrides {
		if k == "" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return base
	}
	sort.Strings(keys)

	replaced := make(map[string]bool, len(keys))
	for _, k := range keys {
		replaced[envKey(k)] = true
	}

	merged := make([]string, 0, len(base)+len(keys))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if replaced[envKey(name)] {
			continue
		}
		merged = append(merged, kv)
	}
	for _, k := range keys {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}

// envKey normalizes a variable name for comparison; Windows names are
// case-insensitive.
func envKey(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(name)
	}
	return name
}
