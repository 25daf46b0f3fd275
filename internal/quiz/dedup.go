package quiz

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Normalize trims, de-duplicates and sorts the filters and defaults the test name.
func (p StartParams) Normalize() StartParams {
	name := strings.TrimSpace(p.TestName)
	if name == "" {
		name = DefaultTestName
	}
	return StartParams{
		Categories:   normalizeSet(p.Categories),
		Difficulties: normalizeSet(p.Difficulties),
		TestName:     name,
	}
}

// Key derives the start deduplication key. Equal filter sets in any order
// share a key; any change in filters or name yields a new one.
func (p StartParams) Key() string {
	n := p.Normalize()
	h := sha256.New()
	h.Write([]byte("c=" + strings.Join(n.Categories, "\x1f")))
	h.Write([]byte("\x1ed=" + strings.Join(n.Difficulties, "\x1f")))
	h.Write([]byte("\x1et=" + n.TestName))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
