package usecase

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

type ParseMode string

const (
	ParseModeStrict  ParseMode = "strict"
	ParseModeLenient ParseMode = "lenient"

	clausePrefix      = "Clause:"
	descriptionPrefix = "Description:"
)

func ParseModeFromString(raw string) ParseMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ParseModeLenient):
		return ParseModeLenient
	default:
		return ParseModeStrict
	}
}

const violationListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "clause": {"type": "string"},
      "description": {"type": "string"}
    },
    "anyOf": [
      {"required": ["clause"]},
      {"required": ["description"]}
    ]
  }
}`

var (
	violationSchema  = jsonschema.MustCompileString("violations.json", violationListSchema)
	listMarkerRegexp = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	emphasisReplacer = strings.NewReplacer("**", "", "__", "")
)

// ViolationParser converts generated analysis text into ordered violation records.
type ViolationParser struct {
	mode ParseMode
}

func NewViolationParser(mode ParseMode) *ViolationParser {
	if mode != ParseModeLenient {
		mode = ParseModeStrict
	}
	return &ViolationParser{mode: mode}
}

func (p *ViolationParser) Mode() ParseMode {
	return p.mode
}

// Parse never fails: unrecognized input yields an empty, non-nil slice.
func (p *ViolationParser) Parse(text string) []domain.Violation {
	if p.mode == ParseModeLenient {
		if violations, ok := parseJSONViolations(text); ok {
			return violations
		}
		return scanViolations(text, normalizeLenientLine, cutPrefixFold)
	}
	return scanViolations(text, nil, strings.CutPrefix)
}

type prefixCutter func(line, prefix string) (string, bool)

func scanViolations(text string, normalize func(string) string, cut prefixCutter) []domain.Violation {
	violations := make([]domain.Violation, 0)
	var current domain.Violation

	for _, line := range strings.Split(text, "\n") {
		if normalize != nil {
			line = normalize(line)
		}
		if rest, ok := cut(line, clausePrefix); ok {
			if !current.IsEmpty() {
				violations = append(violations, current)
				current = domain.Violation{}
			}
			clause := strings.TrimSpace(rest)
			current.Clause = &clause
			continue
		}
		if rest, ok := cut(line, descriptionPrefix); ok {
			description := strings.TrimSpace(rest)
			current.Description = &description
		}
	}

	if !current.IsEmpty() {
		violations = append(violations, current)
	}
	return violations
}

func normalizeLenientLine(line string) string {
	line = strings.TrimLeft(line, " \t")
	line = listMarkerRegexp.ReplaceAllString(line, "")
	return emphasisReplacer.Replace(line)
}

func cutPrefixFold(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return line[len(prefix):], true
}

// parseJSONViolations accepts either a bare array of records or an object with a
// "violations" array, provided the records validate against violationSchema.
func parseJSONViolations(text string) ([]domain.Violation, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	if obj, ok := decoded.(map[string]any); ok {
		list, found := obj["violations"]
		if !found {
			return nil, false
		}
		decoded = list
	}
	if err := violationSchema.Validate(decoded); err != nil {
		return nil, false
	}

	items, _ := decoded.([]any)
	violations := make([]domain.Violation, 0, len(items))
	for _, item := range items {
		fields, _ := item.(map[string]any)
		var v domain.Violation
		if clause, ok := fields["clause"].(string); ok {
			clause = strings.TrimSpace(clause)
			v.Clause = &clause
		}
		if description, ok := fields["description"].(string); ok {
			description = strings.TrimSpace(description)
			v.Description = &description
		}
		violations = append(violations, v)
	}
	return violations, true
}
