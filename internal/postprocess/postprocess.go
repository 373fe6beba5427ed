// Package postprocess removes common LLM artifacts from model output.
//
// Every model-backed stage runs its raw reply through one of the cleaners
// here before the pipeline records it: Clean for translations and
// refinements, CleanCritique for reviews, CleanJSON for classification.
package postprocess

import (
	"regexp"
	"strings"
)

type phase func(string) string

var (
	textPhases     = []phase{removeThinkingBlocks, removeEchoes(translationEchoes), removeCodeFences, removeQuoteWrapping}
	critiquePhases = []phase{removeThinkingBlocks, removeEchoes(critiqueEchoes), removeCodeFences, normalizeNone}
	jsonPhases     = []phase{removeThinkingBlocks, removeCodeFences}
)

func run(text string, phases []phase) string {
	for _, p := range phases {
		text = p(text)
	}
	return strings.TrimSpace(text)
}

// Clean strips thinking blocks, "here is the translation:" preambles, a
// wrapping code fence and wrapping quotes from a translated or refined text.
func Clean(text string) string { return run(text, textPhases) }

// CleanCritique strips a reviewer's reply. A reply that only says NONE, in
// any decoration ("**None.**", "`NONE`"), comes back as the bare word.
func CleanCritique(text string) string { return run(text, critiquePhases) }

// CleanJSON strips thinking blocks and fences around a JSON answer. Quotes
// are kept since they are part of the payload.
func CleanJSON(text string) string { return run(text, jsonPhases) }

// Go's RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose reply was cut off.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Echo patterns are anchored at the start and need a colon, so a sentence
// that merely begins with "Here is" survives.
var translationEchoes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.!]?\s+)?here(?:'s| is)(?: the| my)? (?:refined |polished |translated |revised |improved |corrected )?(?:translation|text|html|version)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished |revised |improved |corrected )?(?:translation|translated text|translated html)\s*:`),
}

var critiqueEchoes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| my)? (?:review|critique|feedback|assessment)\s*:`),
	regexp.MustCompile(`(?i)^(?:review|critique|feedback|issues(?: found)?)\s*:`),
}

func removeEchoes(patterns []*regexp.Regexp) phase {
	return func(text string) string {
		text = strings.TrimSpace(text)
		for _, re := range patterns {
			if loc := re.FindStringIndex(text); loc != nil {
				text = strings.TrimSpace(text[loc[1]:])
			}
		}
		return text
	}
}

// codeFenceRe matches a reply that is entirely one fenced block, with an
// optional language tag such as ```html.
var codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*[ \t]*\n(.*?)\n?```$")

func removeCodeFences(text string) string {
	if m := codeFenceRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'\u201C': '\u201D',
	'\u2018': '\u2019',
}

// removeQuoteWrapping strips one matching pair of outer quotes.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[n-1] == closing {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}

var decoratedNoneRe = regexp.MustCompile(`(?i)^[\s*_` + "`" + `"'.]*none[\s*_` + "`" + `"'.!]*$`)

func normalizeNone(text string) string {
	if decoratedNoneRe.MatchString(text) {
		return "NONE"
	}
	return text
}
