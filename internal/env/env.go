// Package env contains helpers for loading and merging stack environment variables from multiple sources.
package env

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Pair is a single environment variable passed to a stack.
type Pair struct {
	// Key is the variable name.
	Key string
	// Value is the variable value, possibly empty.
	Value string
}

// Pairs is an ordered list of variables. Later entries may override earlier ones.
type Pairs []Pair

// Merge concatenates the given lists and collapses duplicate keys.
// The last value for a key wins; each key keeps the position of its first occurrence.
func Merge(sets ...Pairs) Pairs {
	index := make(map[string]int)
	var out Pairs
	for _, set := range sets {
		for _, p := range set {
			if i, ok := index[p.Key]; ok {
				out[i].Value = p.Value
				continue
			}
			index[p.Key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the value for key and whether it is present.
func (p Pairs) Lookup(key string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return "", false
}

// Keys returns the variable names in order, duplicates included.
func (p Pairs) Keys() []string {
	out := make([]string, 0, len(p))
	for _, v := range p {
		out = append(out, v.Key)
	}
	return out
}

// ParsePair parses a single KEY=VALUE string. The value may be empty and may contain '='.
func ParsePair(raw string) (Pair, error) {
	kv := strings.SplitN(raw, "=", 2)
	if len(kv) != 2 {
		return Pair{}, fmt.Errorf("invalid variable %q, expected key=value", raw)
	}
	key := strings.TrimSpace(kv[0])
	if key == "" {
		return Pair{}, fmt.Errorf("empty key in variable %q", raw)
	}
	return Pair{Key: key, Value: kv[1]}, nil
}

// ParseInlineVars parses repeated KEY=VALUE flag values, keeping their order.
func ParseInlineVars(values []string) (Pairs, error) {
	out := make(Pairs, 0, len(values))
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p, err := ParsePair(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadEnvFile loads a single .env-style file. Keys are returned sorted since
// the file format carries no ordering guarantees once parsed.
func LoadEnvFile(path string) (Pairs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	envMap, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %q: %w", path, err)
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Pairs, 0, len(keys))
	for _, k := range keys {
		out = append(out, Pair{Key: k, Value: envMap[k]})
	}
	return out, nil
}

// LoadEnvFiles loads multiple .env-style files and merges them in order.
func LoadEnvFiles(paths []string) (Pairs, error) {
	var result Pairs
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		pairs, err := LoadEnvFile(path)
		if err != nil {
			return nil, fmt.Errorf("load env file %q: %w", path, err)
		}
		result = Merge(result, pairs)
	}
	return result, nil
}
