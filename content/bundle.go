package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of filter dates.
const DateLayout = "2006-01-02"

// VariantBundle is the decoded JSON document for one variant.
type VariantBundle struct {
	Content         Contents        `json:"content"`
	SectionVariants SectionVariants `json:"sectionVariants"`
	Filters         *Filters        `json:"filters,omitempty"`
	RouteConfig     *RouteConfig    `json:"routeConfig,omitempty"`
}

// PathAlias returns the configured alias, or "" when none is set.
func (b *VariantBundle) PathAlias() string {
	if b == nil || b.RouteConfig == nil {
		return ""
	}
	return b.RouteConfig.PathAlias
}

type RouteConfig struct {
	PathAlias string `json:"pathAlias,omitempty"`
}

// Filters narrows the offers shown by a variant.
type Filters struct {
	TitleContains []string `json:"titleContains,omitempty"`
	TitleExcludes []string `json:"titleExcludes,omitempty"`
	ValidAfter    string   `json:"validAfter,omitempty"`
	ValidBefore   string   `json:"validBefore,omitempty"`
}

// ValidAfterDate parses ValidAfter. ok is false when the bound is unset.
func (f *Filters) ValidAfterDate() (t time.Time, ok bool) {
	if f == nil {
		return time.Time{}, false
	}
	return parseDate(f.ValidAfter)
}

// ValidBeforeDate parses ValidBefore. ok is false when the bound is unset.
func (f *Filters) ValidBeforeDate() (t time.Time, ok bool) {
	if f == nil {
		return time.Time{}, false
	}
	return parseDate(f.ValidBefore)
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SectionAssignment maps a section to its implementation variant. A
// disabled section has an empty Variant.
type SectionAssignment struct {
	Section  Section
	Variant  string
	Disabled bool
}

// Enabled reports whether the section renders.
func (a SectionAssignment) Enabled() bool {
	return !a.Disabled && a.Variant != ""
}

// SectionVariants is the ordered list of section assignments. On the wire it
// is an array of single-key objects: [{"hero":"v3"},{"gallery":false}].
type SectionVariants []SectionAssignment

// Lookup returns the implementation variant for section. Unlisted sections
// are disabled. With duplicate entries the first one wins, although
// validated bundles never contain duplicates.
func (sv SectionVariants) Lookup(section Section) (variant string, enabled bool) {
	for _, a := range sv {
		if a.Section == section {
			return a.Variant, a.Enabled()
		}
	}
	return "", false
}

// Enabled returns the enabled assignments in render order.
func (sv SectionVariants) Enabled() []SectionAssignment {
	out := make([]SectionAssignment, 0, len(sv))
	for _, a := range sv {
		if a.Enabled() {
			out = append(out, a)
		}
	}
	return out
}

func (sv SectionVariants) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, a := range sv {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(a.Section))
		if err != nil {
			return nil, err
		}
		var value []byte
		if a.Enabled() {
			value, err = json.Marshal(a.Variant)
			if err != nil {
				return nil, err
			}
		} else {
			value = []byte("false")
		}
		buf.WriteByte('{')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (sv *SectionVariants) UnmarshalJSON(data []byte) error {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("sectionVariants: %w", err)
	}
	out := make(SectionVariants, 0, len(entries))
	for i, entry := range entries {
		if len(entry) != 1 {
			return fmt.Errorf("sectionVariants[%d]: expected exactly one key, got %d", i, len(entry))
		}
		for key, raw := range entry {
			section, ok := ParseSection(key)
			if !ok {
				return fmt.Errorf("sectionVariants[%d]: unknown section %q", i, key)
			}
			assignment := SectionAssignment{Section: section}
			if bytes.Equal(bytes.TrimSpace(raw), []byte("false")) {
				assignment.Disabled = true
			} else if err := json.Unmarshal(raw, &assignment.Variant); err != nil {
				return fmt.Errorf("sectionVariants[%d].%s: expected string or false", i, key)
			}
			out = append(out, assignment)
		}
	}
	*sv = out
	return nil
}
