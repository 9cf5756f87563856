// Package prompts builds the model inputs shared by every LLM backend.
package prompts

import "strings"

const (
	DefaultRelevancePreamble = "You are a legal expert. Determine if the following documents are relevant to a legal issue involving " +
		"property, employment, contracts, or leasehold agreements. Respond with 'Relevant' or 'Not Relevant' for each document.\n\n"

	DefaultViolationsPreamble = "You are a legal expert. Analyze the following documents and identify any violations of terms or clauses. " +
		"Provide a detailed description of each violation.\n" +
		"List every violation as two lines:\n" +
		"Clause: <clause number or title>\n" +
		"Description: <what was violated and how>\n\n"

	documentsHeader = "Documents:\n"
	documentsJoiner = "\n\n"
)

type Templates struct {
	Relevance  string
	Violations string
}

func DefaultTemplates() Templates {
	return Templates{
		Relevance:  DefaultRelevancePreamble,
		Violations: DefaultViolationsPreamble,
	}
}

// WithDefaults fills blank preambles from DefaultTemplates.
func (t Templates) WithDefaults() Templates {
	def := DefaultTemplates()
	if strings.TrimSpace(t.Relevance) == "" {
		t.Relevance = def.Relevance
	}
	if strings.TrimSpace(t.Violations) == "" {
		t.Violations = def.Violations
	}
	return t
}

func (t Templates) RelevancePrompt(texts []string) string {
	return build(t.WithDefaults().Relevance, texts)
}

func (t Templates) ViolationsPrompt(texts []string) string {
	return build(t.WithDefaults().Violations, texts)
}

func build(preamble string, texts []string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString(documentsHeader)
	b.WriteString(strings.Join(texts, documentsJoiner))
	return b.String()
}
