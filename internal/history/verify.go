package history

import (
	"fmt"

	"github.com/agentx-labs/agentq/internal/document"
)

// Verify checks the log for broken invariants and returns one message per
// violation: a stored content that no longer matches its hash, a version
// string that is not semver, or a version that does not increase over the
// previous record of the same document.
func Verify(h History) []string {
	var failures []string
	seenIDs := map[string]bool{}
	prev := map[string]string{}
	for _, rec := range h.chronological() {
		if seenIDs[rec.ID] {
			failures = append(failures, fmt.Sprintf("record %s: duplicate id", rec.ID))
		}
		seenIDs[rec.ID] = true

		if rec.Content != nil && document.Hash(rec.Content) != rec.ContentHash {
			failures = append(failures, fmt.Sprintf("%s@%s: content does not match hash", rec.DocumentID, rec.Version))
		}
		last, ok := prev[rec.DocumentID]
		prev[rec.DocumentID] = rec.Version
		if !ok {
			if rec.Version != InitialVersion {
				failures = append(failures, fmt.Sprintf("%s@%s: first version is not %s", rec.DocumentID, rec.Version, InitialVersion))
			}
			continue
		}
		cmp, err := CompareVersions(last, rec.Version)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", rec.DocumentID, err))
			continue
		}
		if cmp >= 0 {
			failures = append(failures, fmt.Sprintf("%s@%s: not greater than %s", rec.DocumentID, rec.Version, last))
		}
	}
	return failures
}
