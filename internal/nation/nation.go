// Package nation normalizes nation and region names. Every set lookup,
// snapshot diff and log line in samsite works on the canonical form.
package nation

import "strings"

// Canonicalize converts a name from "My Nation" to "my_nation".
// It is idempotent: Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Display returns the uppercased canonical form used for console emphasis.
func Display(name string) string {
	return strings.ToUpper(Canonicalize(name))
}

// Split breaks a roster string as reported by the remote service into
// canonical names. Full member lists are colon-separated, WA member lists
// are comma-separated; a roster with a single member has no separator.
func Split(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	sep := ":"
	if !strings.Contains(raw, ":") && strings.Contains(raw, ",") {
		sep = ","
	}

	parts := strings.Split(raw, sep)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		names = append(names, Canonicalize(p))
	}
	return names
}

// CanonicalizeAll canonicalizes every entry and drops empty ones.
func CanonicalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = Canonicalize(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
