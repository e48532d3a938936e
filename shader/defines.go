package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

var defineDirective = regexp.MustCompile(`(?m)^#define (.+?) (.+?)$`)

// extractDefines removes every `#define KEY value` line from src, keeping the
// line break, and returns the definitions in source order.
func extractDefines(src string) (string, [][2]string) {
	var defs [][2]string
	for _, m := range defineDirective.FindAllStringSubmatch(src, -1) {
		defs = append(defs, [2]string{m[1], m[2]})
	}
	if len(defs) == 0 {
		return src, nil
	}
	return defineDirective.ReplaceAllLiteralString(src, ""), defs
}

// applyDefines substitutes every key by its value, longest key first so that
// a key never clobbers a longer key containing it. Equal lengths go in
// reverse lexical order.
func applyDefines(src string, defines map[string]string) string {
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(b, a)
	})

	for _, k := range keys {
		src = strings.ReplaceAll(src, k, defines[k])
	}
	return src
}
