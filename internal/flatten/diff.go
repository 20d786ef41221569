package flatten

import (
	"reflect"
	"sort"
	"strings"
)

// ChangeSet partitions the union of dot-paths from two flattened trees.
type ChangeSet struct {
	Added     []string
	Removed   []string
	Modified  []string
	Unchanged []string
}

// Compare flattens before/after and partitions every dot-path in their
// union into added/removed/modified/unchanged, skipping any path that
// starts with one of excludePrefixes (configstore uses this to exclude
// "_meta." bookkeeping paths from change sets).
func Compare(before, after any, excludePrefixes ...string) ChangeSet {
	b := Flatten(before)
	a := Flatten(after)

	seen := make(map[string]struct{}, len(b)+len(a))
	for p := range b {
		seen[p] = struct{}{}
	}
	for p := range a {
		seen[p] = struct{}{}
	}

	var cs ChangeSet
	for p := range seen {
		if excluded(p, excludePrefixes) {
			continue
		}
		bv, bok := b[p]
		av, aok := a[p]
		switch {
		case bok && !aok:
			cs.Removed = append(cs.Removed, p)
		case !bok && aok:
			cs.Added = append(cs.Added, p)
		case !reflect.DeepEqual(bv, av):
			cs.Modified = append(cs.Modified, p)
		default:
			cs.Unchanged = append(cs.Unchanged, p)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Removed)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Unchanged)
	return cs
}

// ChangedPaths returns just the added+modified+removed paths, sorted;
// this is the shape configstore records as VersionMetadata.Changes.
func ChangedPaths(before, after any, excludePrefixes ...string) []string {
	cs := Compare(before, after, excludePrefixes...)
	out := make([]string, 0, len(cs.Added)+len(cs.Removed)+len(cs.Modified))
	out = append(out, cs.Added...)
	out = append(out, cs.Removed...)
	out = append(out, cs.Modified...)
	sort.Strings(out)
	return out
}

func excluded(path string, prefixes []string) bool {
	for _, pre := range prefixes {
		if path == strings.TrimSuffix(pre, ".") || strings.HasPrefix(path, pre) {
			return true
		}
	}
	return false
}
