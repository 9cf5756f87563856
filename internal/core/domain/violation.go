package domain

import "strings"

// Violation is one clause-level finding. A nil field was never populated by the
// generated text; a non-nil empty field was present with no value.
type Violation struct {
	Clause      *string `json:"clause,omitempty"`
	Description *string `json:"description,omitempty"`
}

func NewViolation(clause, description string) Violation {
	return Violation{Clause: &clause, Description: &description}
}

func (v Violation) IsEmpty() bool {
	return v.Clause == nil && v.Description == nil
}

func (v Violation) ClauseText() string {
	if v.Clause == nil {
		return ""
	}
	return *v.Clause
}

func (v Violation) DescriptionText() string {
	if v.Description == nil {
		return ""
	}
	return *v.Description
}

// RelevanceFromLabel interprets a classifier label. Any label whose lowercased
// text contains "relevant" counts, including "Not Relevant".
func RelevanceFromLabel(label string) RelevanceResult {
	return RelevanceResult{
		IsRelevant: strings.Contains(strings.ToLower(label), "relevant"),
		Label:      label,
	}
}
