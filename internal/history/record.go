package history

import (
	"fmt"
	"time"

	"github.com/agentx-labs/agentq/internal/document"
	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/quality"
	"github.com/google/uuid"
)

// Recorder appends scored versions to a History.
type Recorder struct {
	scorer         *quality.Scorer
	minorThreshold int
	now            func() time.Time
	newID          func() string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithIDs overrides record id generation.
func WithIDs(newID func() string) Option {
	return func(r *Recorder) { r.newID = newID }
}

// NewRecorder returns a recorder that scores with s and takes its minor
// bump threshold from the scorer's policy.
func NewRecorder(s *quality.Scorer, opts ...Option) *Recorder {
	r := &Recorder{
		scorer:         s,
		minorThreshold: s.Policy().Versioning.MinorBulletThreshold,
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordFile reads path under root and records it. A missing file is a
// NotFound error and h is returned untouched.
func (r *Recorder) RecordFile(h History, root, path string) (History, Result, error) {
	doc, err := document.Read(root, path)
	if err != nil {
		return h, Result{}, errs.WithOp(err, "history.record")
	}
	return r.Record(h, doc)
}

// Record scores doc and appends a version when its content hash differs
// from the latest record. Identical content is a no-op that reports
// StatusUnchanged. h itself is never modified.
func (r *Recorder) Record(h History, doc *document.Document) (History, Result, error) {
	res := Result{DocumentID: doc.ID}
	latest, exists := h.Latest(doc.ID)
	if exists && latest.ContentHash == doc.Hash {
		res.Status = StatusUnchanged
		res.Version = latest.Version
		res.Record = latest
		return h, res, nil
	}

	now := r.now().UTC()
	rec := VersionRecord{
		ID:          r.newID(),
		DocumentID:  doc.ID,
		ContentHash: doc.Hash,
		Content:     append([]byte(nil), doc.Raw...),
		Score:       r.scorer.Score(doc),
	}

	if !exists {
		lines := contentLines(string(rec.Content))
		rec.Version = InitialVersion
		rec.Bump = BumpInitial
		rec.Changes = []Change{{Kind: ChangeCreated, Count: len(lines), Samples: samples(lines)}}
		res.Status = StatusCreated
	} else {
		bump, changes := classify(string(latest.Content), string(rec.Content), r.minorThreshold)
		next, err := NextVersion(latest.Version, bump)
		if err != nil {
			return h, Result{}, errs.Parse(err, fmt.Sprintf("latest version of %s", doc.ID), "")
		}
		rec.Version = next
		rec.Bump = bump
		rec.Changes = changes
		res.Status = StatusUpdated
		res.Previous = latest.Version
		// Keep Latest well defined when the wall clock steps backwards.
		if !now.After(latest.CreatedAt) {
			now = latest.CreatedAt.Add(time.Millisecond)
		}
	}
	rec.CreatedAt = now

	next := h.clone()
	next.Versions = append(next.Versions, rec)
	next.Usage[doc.ID] = next.Usage[doc.ID].apply(rec)
	next.UpdatedAt = now

	res.Version = rec.Version
	res.Bump = rec.Bump
	res.Record = rec
	return next, res, nil
}
