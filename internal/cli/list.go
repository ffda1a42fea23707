package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/library"
	"github.com/spf13/cobra"
)

var (
	listQuery string
	listModel string
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List templates in the library",
	Long:  `List every template in the library with its frontmatter name, model and latest recorded version.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Filter by id, name or description (case-insensitive)")
	listCmd.Flags().StringVar(&listModel, "model", "", "Filter by frontmatter model")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a template for display.
type listEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Model       string `json:"model,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Path        string `json:"path"`
}

func runList(cmd *cobra.Command, args []string) error {
	root := config.Library()
	if len(args) == 1 {
		root = args[0]
	}
	templates, err := library.Discover(root)
	if err != nil {
		return err
	}
	h, err := openStore().Load()
	if err != nil {
		return err
	}

	var entries []listEntry
	for _, t := range templates {
		if !matchesQuery(t, listQuery, listModel) {
			continue
		}
		e := listEntry{ID: t.ID, Name: t.Name, Model: t.Model, Description: t.Description, Path: t.Path}
		if latest, ok := h.Latest(t.ID); ok {
			e.Version = latest.Version
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
		return nil
	}
	if listJSON {
		return printJSON(cmd, entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODEL\tVERSION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, orDash(e.Model), orDash(e.Version))
	}
	return w.Flush()
}

// matchesQuery reports whether t passes the query and model filters.
func matchesQuery(t library.Template, query, model string) bool {
	if model != "" && !strings.EqualFold(t.Model, model) {
		return false
	}
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, field := range []string{t.ID, t.Name, t.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
