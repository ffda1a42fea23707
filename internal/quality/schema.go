package quality

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/policy.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// SchemaResult contains the outcome of a policy schema validation.
type SchemaResult struct {
	Valid  bool
	Issues []SchemaIssue
}

// SchemaIssue is one schema violation. Path is the JSON pointer into the
// policy document; Where names the same place in policy terms, such as
// `dimension "yaml" > check 2 > weight`.
type SchemaIssue struct {
	Path    string
	Where   string
	Message string
	Keyword string
}

// String renders the issue on one line.
func (i SchemaIssue) String() string {
	return i.Where + ": " + i.Message
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling policy schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("policy.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding policy schema: %w", err)
			return
		}
		if compiledSchema, err = c.Compile("policy.schema.json"); err != nil {
			compileErr = fmt.Errorf("compiling policy schema: %w", err)
		}
	})
	return compiledSchema, compileErr
}

// ValidateSchema checks raw policy YAML against the embedded JSON Schema.
// The error return is for YAML that cannot be decoded; schema violations
// are listed in the result.
func ValidateSchema(data []byte) (*SchemaResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	policy := jsonValue(node)

	// The validator wants json.Number and plain maps, so go through JSON.
	encoded, err := json.Marshal(policy)
	if err != nil {
		return nil, fmt.Errorf("converting policy to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("converting policy to JSON: %w", err)
	}

	var ve *jsonschema.ValidationError
	switch err := schema.Validate(inst); {
	case err == nil:
		return &SchemaResult{Valid: true}, nil
	case errors.As(err, &ve):
		return &SchemaResult{Issues: policyIssues(policy, ve)}, nil
	default:
		return nil, fmt.Errorf("validating policy: %w", err)
	}
}

// policyIssues flattens the violation tree to its leaves, dropping
// container keywords whose causes already say what failed and repeats of
// the same message at the same place.
func policyIssues(policy any, root *jsonschema.ValidationError) []SchemaIssue {
	var issues []SchemaIssue
	seen := map[string]bool{}
	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		ve := stack[0]
		stack = stack[1:]
		if len(ve.Causes) > 0 {
			stack = append(append([]*jsonschema.ValidationError(nil), ve.Causes...), stack...)
			continue
		}
		if ve.ErrorKind == nil {
			continue
		}
		kw := ve.ErrorKind.KeywordPath()
		if len(kw) == 0 {
			continue
		}
		keyword := kw[len(kw)-1]
		if keyword == "allOf" || keyword == "$ref" {
			continue
		}
		issue := SchemaIssue{
			Path:    "/" + strings.Join(ve.InstanceLocation, "/"),
			Where:   describeLocation(policy, ve.InstanceLocation),
			Message: ve.ErrorKind.LocalizedString(printer),
			Keyword: keyword,
		}
		key := issue.Path + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			issues = append(issues, issue)
		}
	}
	if len(issues) == 0 {
		issues = append(issues, SchemaIssue{Path: "/", Where: "policy", Message: root.Error()})
	}
	return issues
}

// describeLocation turns a JSON pointer into policy terms. Dimensions and
// tiers are named when the document gives them a name; checks are numbered
// from 1.
func describeLocation(policy any, loc []string) string {
	if len(loc) == 0 {
		return "policy"
	}
	var parts []string
	node := policy
	for i := 0; i < len(loc); i++ {
		seg := loc[i]
		m, isMap := node.(map[string]any)
		if !isMap {
			parts = append(parts, seg)
			node = nil
			continue
		}
		node = m[seg]
		items, isList := node.([]any)
		if !isList || i+1 >= len(loc) {
			parts = append(parts, seg)
			continue
		}
		idx, err := strconv.Atoi(loc[i+1])
		if err != nil || idx < 0 || idx >= len(items) {
			parts = append(parts, seg)
			continue
		}
		i++
		node = items[idx]
		parts = append(parts, itemLabel(seg, idx, node))
	}
	return strings.Join(parts, " > ")
}

func itemLabel(list string, idx int, item any) string {
	kind := strings.TrimSuffix(list, "s")
	if m, ok := item.(map[string]any); ok && list != "checks" {
		if name, ok := m["name"].(string); ok && name != "" {
			return fmt.Sprintf("%s %q", kind, name)
		}
	}
	return fmt.Sprintf("%s %d", kind, idx+1)
}

// jsonValue converts decoded YAML into values encoding/json accepts:
// mappings with non-string keys get their keys formatted as strings.
func jsonValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonValue(item)
		}
		return out
	}
	return v
}
