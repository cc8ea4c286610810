package retrieve

import "lineage-ai/internal/storage"

// Request is a retrieval query. Scope optionally anchors the search to a
// commit sha, file path, or symbol name; Budget bounds the number of bundle
// items (0 means the engine default).
type Request struct {
	Query  string `json:"query"`
	Scope  string `json:"scope,omitempty"`
	Budget int    `json:"budget,omitempty"`
}

// Item pairs one commit with the symbol snapshots selected for it.
type Item struct {
	Commit  storage.CommitRecord
	Symbols []storage.SymbolSnapshot
}

// Bundle is the bounded, ordered context selected for a query. An empty
// bundle is a valid result, not an error; the answer composer handles
// "no grounding found" explicitly.
type Bundle struct {
	Items []Item
}

// Empty reports whether the bundle selected no context at all.
func (b Bundle) Empty() bool {
	return len(b.Items) == 0
}

// SHAs returns the bundle's commit shas in bundle order.
func (b Bundle) SHAs() []string {
	shas := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		shas = append(shas, item.Commit.SHA)
	}
	return shas
}
