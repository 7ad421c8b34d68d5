// Package grammar parses and prints the model notation exposed at the core's
// boundary (§6): model := relation (":" relation)* ; relation := abbreviation+.
package grammar

import (
	"strings"

	"gohypo/domain/core"
	"gohypo/domain/ra"
)

// ParseModel parses a colon-separated list of relations into a model,
// case-insensitively, against vl's abbreviation index. An unrecognized
// abbreviation returns core.ErrUnknownAbbreviation naming the offending
// token; an empty model string returns core.ErrMalformedModel.
func ParseModel(vl *ra.VariableList, s string) (ra.Model, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ra.Model{}, core.NewValidationError(core.ErrMalformedModel, s)
	}

	tokens := strings.Split(s, ":")
	relations := make([]ra.Relation, 0, len(tokens))
	for _, tok := range tokens {
		rel, err := parseRelation(vl, tok)
		if err != nil {
			return ra.Model{}, err
		}
		relations = append(relations, rel)
	}
	return ra.NewModel(relations...), nil
}

// parseRelation greedily matches known abbreviations out of token, longest
// first, so abbreviations of different lengths can coexist in one variable
// list without ambiguity for any valid input.
func parseRelation(vl *ra.VariableList, token string) (ra.Relation, error) {
	remaining := strings.ToLower(strings.TrimSpace(token))
	if remaining == "" {
		return ra.Relation{}, core.NewValidationError(core.ErrMalformedModel, token)
	}

	var vars []int
	for len(remaining) > 0 {
		idx, matchLen := longestAbbrevMatch(vl, remaining)
		if idx == -1 {
			return ra.Relation{}, core.NewValidationError(core.ErrUnknownAbbreviation, remaining)
		}
		vars = append(vars, idx)
		remaining = remaining[matchLen:]
	}
	return ra.NewRelation(vars...), nil
}

func longestAbbrevMatch(vl *ra.VariableList, s string) (index, length int) {
	for l := len(s); l >= 1; l-- {
		if idx := vl.IndexOf(s[:l]); idx != -1 {
			return idx, l
		}
	}
	return -1, 0
}

// PrintModel renders a model's canonical notation (§3, §6), equivalent to
// calling m.PrintName(vl) directly; exported here so callers that only
// import the grammar package don't also need to import domain/ra.
func PrintModel(vl *ra.VariableList, m ra.Model) string {
	return m.PrintName(vl)
}
