package history

import (
	"sort"
	"time"

	"github.com/agentx-labs/agentq/internal/quality"
)

// Status is the outcome of recording a document.
type Status string

// Record outcomes.
const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
)

// Bump names the semantic version component a change incremented.
type Bump string

// Bump kinds. BumpInitial marks the first record of a document.
const (
	BumpInitial Bump = "initial"
	BumpMajor   Bump = "major"
	BumpMinor   Bump = "minor"
	BumpPatch   Bump = "patch"
)

// ChangeKind classifies a Change entry.
type ChangeKind string

// Change kinds.
const (
	ChangeCreated  ChangeKind = "created"
	ChangeAddition ChangeKind = "addition"
	ChangeRemoval  ChangeKind = "removal"
)

// Change summarizes lines added or removed between two versions.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Count   int        `json:"count"`
	Samples []string   `json:"samples,omitempty"`
}

// VersionRecord is one immutable entry of a document's history. Content
// holds the exact bytes that were hashed and scored; it is base64 in JSON so
// non UTF-8 input survives a save and load unchanged.
type VersionRecord struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"document_id"`
	Version     string        `json:"version"`
	ContentHash string        `json:"content_hash"`
	CreatedAt   time.Time     `json:"created_at"`
	Bump        Bump          `json:"bump"`
	Changes     []Change      `json:"changes"`
	Score       quality.Score `json:"score"`
	Content     []byte        `json:"content"`
}

// History is the append-only version log plus per-document usage counters.
// Operations take a History and return a new one; nothing is kept in
// package state.
type History struct {
	Versions  []VersionRecord  `json:"versions"`
	Usage     map[string]Usage `json:"usage"`
	UpdatedAt time.Time        `json:"updated_at,omitempty"`
}

// Result describes what Record did.
type Result struct {
	Status     Status        `json:"status"`
	DocumentID string        `json:"document_id"`
	Version    string        `json:"version"`
	Previous   string        `json:"previous,omitempty"`
	Bump       Bump          `json:"bump,omitempty"`
	Record     VersionRecord `json:"-"`
}

// New returns an empty history.
func New() History {
	return History{Versions: []VersionRecord{}, Usage: map[string]Usage{}}
}

// clone copies the slice and map headers so appends and writes never reach
// the caller's value. Records themselves are treated as immutable.
func (h History) clone() History {
	c := History{
		Versions:  make([]VersionRecord, len(h.Versions), len(h.Versions)+1),
		Usage:     make(map[string]Usage, len(h.Usage)+1),
		UpdatedAt: h.UpdatedAt,
	}
	copy(c.Versions, h.Versions)
	for k, v := range h.Usage {
		c.Usage[k] = v
	}
	return c
}

// Latest returns the newest record for id by timestamp. Records with equal
// timestamps resolve to the one appended last.
func (h History) Latest(id string) (VersionRecord, bool) {
	best := -1
	for i, r := range h.Versions {
		if r.DocumentID != id {
			continue
		}
		if best < 0 || !r.CreatedAt.Before(h.Versions[best].CreatedAt) {
			best = i
		}
	}
	if best < 0 {
		return VersionRecord{}, false
	}
	return h.Versions[best], true
}

// VersionsOf returns the records for id in chronological order.
func (h History) VersionsOf(id string) []VersionRecord {
	var out []VersionRecord
	for _, r := range h.Versions {
		if r.DocumentID == id {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// DocumentIDs returns every document id present in the log, sorted.
func (h History) DocumentIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, r := range h.Versions {
		if !seen[r.DocumentID] {
			seen[r.DocumentID] = true
			ids = append(ids, r.DocumentID)
		}
	}
	sort.Strings(ids)
	return ids
}

// chronological returns all records ordered by timestamp, keeping log
// order for ties.
func (h History) chronological() []VersionRecord {
	out := append([]VersionRecord(nil), h.Versions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
