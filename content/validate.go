package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-slug"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var bundleSchema []byte

const schemaURL = "variant-bundle.json"

var ErrBundleInvalid = errors.New("variant bundle invalid")

// ReservedAliases are first path segments the site serves itself, so no
// variant may claim them as its alias.
var ReservedAliases = []string{"anfrage", "api", "static"}

// IsReservedAlias reports whether alias is one of ReservedAliases.
func IsReservedAlias(alias string) bool {
	for _, reserved := range ReservedAliases {
		if alias == reserved {
			return true
		}
	}
	return false
}

// Issue is a single validation failure, located by JSON pointer.
type Issue struct {
	Location string
	Message  string
}

// ValidationError lists every offending path of a rejected bundle.
type ValidationError struct {
	Issues []Issue
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrBundleInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrBundleInvalid
}

// Issues extracts validation issues from err.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return []Issue{{Message: err.Error()}}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, bytes.NewReader(bundleSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// Validate checks raw JSON against the bundle schema and the cross-entry
// invariants, returning the typed bundle.
func Validate(raw []byte) (*VariantBundle, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, &ValidationError{
			Issues: []Issue{{Location: "", Message: "malformed JSON: " + err.Error()}},
			Cause:  err,
		}
	}
	if err := validateShape(value); err != nil {
		return nil, err
	}

	var bundle VariantBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, &ValidationError{
			Issues: []Issue{{Message: err.Error()}},
			Cause:  err,
		}
	}
	if issues := checkInvariants(&bundle); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return &bundle, nil
}

// ValidateValue validates an already decoded JSON value.
func ValidateValue(value any) (*VariantBundle, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: err.Error()}}, Cause: err}
	}
	return Validate(raw)
}

func validateShape(value any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("content: compile bundle schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Issues: collectIssues(verr), Cause: err}
		}
		return &ValidationError{Issues: []Issue{{Message: err.Error()}}, Cause: err}
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func checkInvariants(bundle *VariantBundle) []Issue {
	var issues []Issue

	seen := make(map[Section]int, len(bundle.SectionVariants))
	for i, a := range bundle.SectionVariants {
		if first, dup := seen[a.Section]; dup {
			issues = append(issues, Issue{
				Location: fmt.Sprintf("/sectionVariants/%d", i),
				Message:  fmt.Sprintf("section %q already assigned at /sectionVariants/%d", a.Section, first),
			})
			continue
		}
		seen[a.Section] = i
	}

	if alias := bundle.PathAlias(); alias != "" {
		if strings.Contains(alias, "/") || !slug.IsValid(alias) {
			issues = append(issues, Issue{
				Location: "/routeConfig/pathAlias",
				Message:  fmt.Sprintf("path alias %q must be a single lowercase slug segment", alias),
			})
		} else if IsReservedAlias(alias) {
			issues = append(issues, Issue{
				Location: "/routeConfig/pathAlias",
				Message:  fmt.Sprintf("path alias %q is reserved by the site", alias),
			})
		}
	}

	if after, ok := bundle.Filters.ValidAfterDate(); ok {
		if before, ok := bundle.Filters.ValidBeforeDate(); ok && before.Before(after) {
			issues = append(issues, Issue{
				Location: "/filters",
				Message:  "validBefore must not precede validAfter",
			})
		}
	}
	return issues
}
