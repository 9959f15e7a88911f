// Package repourl decomposes repository URLs of the form
// base?query#fragment. The ref selector for a checkout travels in the
// query component (?ref=<branch|tag|commit>); a fragment on a repository
// URL is a user error, not something to silently drop.
package repourl

import (
	"fmt"
	"strings"
)

// Parts holds the three components of a split URL, in fixed order.
type Parts struct {
	Base     string
	Query    string
	Fragment string
}

// Split cuts raw on the first '#' to isolate the fragment, then cuts the
// remainder on the first '?' to isolate the query. Missing components come
// back empty. No percent-decoding happens; the pieces are returned exactly
// as written.
func Split(raw string) Parts {
	var p Parts
	rest := raw
	if before, after, found := strings.Cut(rest, "#"); found {
		p.Fragment = after
		rest = before
	}
	if before, after, found := strings.Cut(rest, "?"); found {
		p.Query = after
		rest = before
	}
	p.Base = rest
	return p
}

// Ref extracts the checkout base URL and the requested ref from a
// repository URL. A non-empty fragment is rejected: ref selection must go
// through the query component.
func Ref(raw string) (base string, ref string, err error) {
	p := Split(raw)
	if p.Fragment != "" {
		return "", "", fmt.Errorf("repository URL %q carries a fragment %q: pass the ref as ?ref=<ref> instead", raw, p.Fragment)
	}
	if p.Query == "" {
		return p.Base, "", nil
	}
	for _, kv := range strings.Split(p.Query, "&") {
		key, value, _ := strings.Cut(kv, "=")
		if key == "ref" {
			return p.Base, value, nil
		}
	}
	return "", "", fmt.Errorf("repository URL query %q has no ref selector", p.Query)
}
