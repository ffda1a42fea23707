package cli

import (
	"os"

	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/document"
	"github.com/agentx-labs/agentq/internal/history"
	"github.com/agentx-labs/agentq/internal/quality"
)

// loadScorer builds a scorer for the configured policy.
func loadScorer() (*quality.Scorer, error) {
	p, err := quality.LoadPolicy(config.PolicyPath())
	if err != nil {
		return nil, err
	}
	return quality.NewScorer(p)
}

func openStore() *history.Store {
	return history.NewStore(config.HistoryPath())
}

// rootFor returns the directory document ids are relative to: the single
// directory argument if one was given, else the configured library.
func rootFor(args []string) string {
	if len(args) == 1 {
		if isDir(args[0]) {
			return args[0]
		}
	}
	return config.Library()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func readAll(root string, paths []string) ([]*document.Document, error) {
	docs := make([]*document.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := document.Read(root, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
