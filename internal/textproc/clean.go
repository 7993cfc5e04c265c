// Package textproc cleans raw fetched text and slices it into the units
// the pipeline embeds: sentences for summarisation, overlapping word
// windows for context retrieval.
package textproc

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script[\s\S]*?>[\s\S]*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[\s\S]*?>[\s\S]*?</style>`)
	tagRe    = regexp.MustCompile(`</?[^>]+(>|$)`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// CleanHTML strips markup from a fetched document and collapses whitespace.
// Script and style bodies are removed entirely; entities are decoded.
func CleanHTML(raw string) string {
	raw = scriptRe.ReplaceAllString(raw, "")
	raw = styleRe.ReplaceAllString(raw, "")
	noTags := tagRe.ReplaceAllString(raw, "")
	decoded := html.UnescapeString(noTags)
	return strings.TrimSpace(spaceRe.ReplaceAllString(decoded, " "))
}

// Boilerplate lines dropped before any other cleanup. Matched
// case-insensitively against each input line.
var boilerplateLineRe = regexp.MustCompile(`(?i)cheatography|download|fatbuttluver|comment|post your comment|related cheat sheets`)

var cleanSteps = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`<[^>]*>`), " "},
	{regexp.MustCompile(`&[a-zA-Z0-9#]+;`), " "},
	{regexp.MustCompile(`<!--[\s\S]*?-->`), " "},
	{regexp.MustCompile(`<!\[CDATA\[[\s\S]*?\]\]>`), " "},
	{regexp.MustCompile("```[\\s\\S]*?```"), " "},
	{regexp.MustCompile("`[^`]*`"), " "},
	// Subtitle cue timestamps, optionally a full cue range.
	{regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}(?:\.\d{3})?(?:\s*-->\s*\d{1,2}:\d{2}:\d{2}(?:\.\d{3})?)?`), " "},
	{regexp.MustCompile(`(?m)^\d+\s*$`), " "},
	// Bracketed citations and parenthesised year references.
	{regexp.MustCompile(`\[[^\]]*\]`), " "},
	{regexp.MustCompile(`\([^)]*\d{4}[^)]*\)`), " "},
	{regexp.MustCompile(`https?://[^\s]+`), " "},
	{regexp.MustCompile(`www\.[^\s]+`), " "},
	{regexp.MustCompile(`[^\s]+@[^\s]+\.[^\s]+`), " "},
	{regexp.MustCompile(`[a-zA-Z]:\\[^\s]+`), " "},
	{regexp.MustCompile(`/[^\s]*/[^\s]*`), " "},
	{regexp.MustCompile(`(?im)^(WEBVTT|Kind:|Language:|NOTE:|STYLE:|REGION:|DOCTYPE|xmlns|charset|encoding|version)`), " "},
	{regexp.MustCompile(`(?m)^-\s*\[[^\]]+\]\s*`), ""},
	{regexp.MustCompile(`(?i)(ID|Class|Style|Width|Height|Color|Font|Size):\s*[^\s;]+`), " "},
	{regexp.MustCompile(`[^\w\s.,!?;:'"()-]`), " "},
}

var (
	boldRe   = regexp.MustCompile(`\*\*[^*]*\*\*`)
	italicRe = regexp.MustCompile(`\*[^*]*\*`)
)

// Clean removes boilerplate lines, markup remnants, subtitle cues,
// citations, URLs, emails, file paths and identifier noise from text,
// unwrapping (not deleting) emphasised spans. The output is a single
// whitespace-collapsed line.
func Clean(text string) string {
	// The line denylist targets boilerplate rows inside multi-line
	// documents. A single-line input is one body of prose; its boilerplate
	// clauses are rejected later, sentence by sentence.
	if lines := strings.Split(text, "\n"); len(lines) > 1 {
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if boilerplateLineRe.MatchString(line) {
				continue
			}
			kept = append(kept, line)
		}
		text = strings.Join(kept, " ")
	}

	// Unwrap markdown emphasis before the symbol sweep deletes the markers.
	text = boldRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, "**", "")
	})
	text = italicRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, "*", "")
	})

	for _, step := range cleanSteps {
		text = step.re.ReplaceAllString(text, step.repl)
	}

	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
