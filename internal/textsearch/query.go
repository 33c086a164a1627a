// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsearch

import (
	"regexp"
	"strings"
)

// Weights of the proximity and accumulate forms of a multi-term query.
const (
	nearWeight  = "1.0"
	accumWeight = "0.1"
)

var reserved = regexp.MustCompile(`[-&|~,=;%_]`)

// TransformQuery turns a user's search text into an Oracle Text CONTAINS
// expression. Single quotes are dropped and reserved characters escaped.
// Each term is wrapped in braces unless it holds a "*" wildcard, which
// becomes "%". "and" and "or" are dropped, and double-quoted phrases stay
// one term. Several terms score highest when near each other:
//
//	calcium binding -> ({calcium} NEAR {binding}) * 1.0 OR ({calcium} ACCUM {binding}) * 0.1
func TransformQuery(expr string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(expr), "'", "")
	trimmed = reserved.ReplaceAllString(trimmed, `\$0`)

	terms := tokenize(trimmed)
	switch len(terms) {
	case 0:
		return wildcarded(trimmed)
	case 1:
		return terms[0]
	}
	return "(" + strings.Join(terms, " NEAR ") + ") * " + nearWeight +
		" OR (" + strings.Join(terms, " ACCUM ") + ") * " + accumWeight
}

func tokenize(input string) []string {
	var terms []string
	inside := false
	for _, chunk := range strings.Split(input, `"`) {
		if inside {
			if chunk != "" {
				terms = append(terms, wildcarded(chunk))
			}
		} else {
			for _, word := range strings.Split(chunk, " ") {
				lower := strings.ToLower(word)
				if word != "" && lower != "and" && lower != "or" {
					terms = append(terms, wildcarded(word))
				}
			}
		}
		inside = !inside
	}
	return terms
}

func wildcarded(term string) string {
	if !strings.Contains(term, "*") {
		return "{" + term + "}"
	}
	return strings.ReplaceAll(term, "*", "%")
}
