package textproc

import (
	"regexp"
	"strings"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	lettersRunRe    = regexp.MustCompile(`[a-zA-Z]{3,}`)
	numericOnlyRe   = regexp.MustCompile(`^[\d\s.,%-]+$`)
	bareDateRe      = regexp.MustCompile(`^\d{1,4}[-/]\d{1,2}[-/]\d{1,4}$`)
	identifierRe    = regexp.MustCompile(`^[A-Z0-9_-]{3,}$`)
)

// Denylist for sentences that carry no content: prefixes leaked from the
// retrieval convention, citation and attribution boilerplate, navigation
// words, username-like tokens and generic section markers.
var nonContentRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^passage:`),
	regexp.MustCompile(`(?i)cheatography|download|comment|post your comment|related cheat sheets`),
	regexp.MustCompile(`\b(Springer-Verlag|Nature|Elsevier|Wiley|Cambridge University Press)\b`),
	regexp.MustCompile(`(?i)by [a-z0-9_-]{3,}`),
	regexp.MustCompile(`(?i)\b(fatbuttluver|hlewsey7|user\d+)\b`),
	regexp.MustCompile(`(?i)\b(cheat sheet|unit \d+|chapter \d+|ap biology)\b`),
	regexp.MustCompile(`(?i)^page \d+`),
	regexp.MustCompile(`(?i)^\s*(click|read|view|login|register|terms|about|privacy)\b`),
}

// ExtractSentences cleans each text, joins them and splits on sentence
// punctuation, keeping only candidates that pass IsValidSentence. An empty
// result means the input had no usable content; callers must treat that as
// a normal outcome, not an error.
func ExtractSentences(texts []string) []string {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		cleaned = append(cleaned, Clean(t))
	}

	candidates := sentenceSplitRe.Split(strings.Join(cleaned, " "), -1)
	sentences := make([]string, 0, len(candidates))
	for _, c := range candidates {
		s := strings.TrimSpace(c)
		if IsValidSentence(s) {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// IsValidSentence reports whether a candidate sentence is worth embedding:
// 15–500 chars, at least one run of 3 letters, at least 4 tokens, not
// purely numeric or date-like, not an identifier, and not on the
// non-content denylist.
func IsValidSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 15 || len(trimmed) > 500 {
		return false
	}
	if !lettersRunRe.MatchString(trimmed) {
		return false
	}
	if len(strings.Fields(trimmed)) < 4 {
		return false
	}
	if numericOnlyRe.MatchString(trimmed) {
		return false
	}
	if bareDateRe.MatchString(trimmed) {
		return false
	}
	if identifierRe.MatchString(trimmed) {
		return false
	}

	for _, re := range nonContentRes {
		if re.MatchString(trimmed) {
			return false
		}
	}
	return true
}
