package domain

import (
	"fmt"
	"strings"
)

// TopicEntry maps a human-readable topic name to the reference URL of the
// document that answers questions about it.
type TopicEntry struct {
	Name        string
	DocumentRef string
}

// TopicCatalog is the ordered set of topics the service can answer about.
// Entry order is significant: it is the scan order of the relevance cascade
// and the tie-break between equally confident topics.
type TopicCatalog struct {
	entries []TopicEntry
}

func NewTopicCatalog(entries []TopicEntry) (TopicCatalog, error) {
	seen := make(map[string]string, len(entries))
	for i, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return TopicCatalog{}, fmt.Errorf("catalog entry %d: topic name is blank", i)
		}
		if strings.TrimSpace(entry.DocumentRef) == "" {
			return TopicCatalog{}, fmt.Errorf("catalog entry %q: document reference is blank", name)
		}
		// Matching is case-insensitive, so names differing only by case
		// would be ambiguous.
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return TopicCatalog{}, fmt.Errorf("catalog entries %q and %q collide case-insensitively", prev, name)
		}
		seen[key] = name
	}
	return TopicCatalog{entries: entries}, nil
}

func (c TopicCatalog) Entries() []TopicEntry {
	return c.entries
}

func (c TopicCatalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, entry := range c.entries {
		names[i] = entry.Name
	}
	return names
}

func (c TopicCatalog) Len() int {
	return len(c.entries)
}

// DocumentID derives the opaque document identifier from a reference URL:
// the trailing segment after the last hyphen. References without a hyphen
// yield an empty identifier and cannot be fetched.
func DocumentID(ref string) string {
	idx := strings.LastIndex(ref, "-")
	if idx < 0 {
		return ""
	}
	return ref[idx+1:]
}
