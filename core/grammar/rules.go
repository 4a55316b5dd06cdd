package grammar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const rulesBaseScore = 95

type rule struct {
	pattern *regexp.Regexp
	group   int // submatch holding the error text; 0 for the whole match
	suggest func(match string) string
	typ     string
	explain string
	penalty int
}

func fixed(s string) func(string) string {
	return func(string) string { return s }
}

// replaceFirst replaces the first match of expr in the error text by repl.
func replaceFirst(expr, repl string) func(string) string {
	re := regexp.MustCompile(expr)
	return func(match string) string {
		loc := re.FindStringIndex(match)
		if loc == nil {
			return match
		}
		return match[:loc[0]] + repl + match[loc[1]:]
	}
}

var rules = []rule{
	// subject-verb agreement
	{
		pattern: regexp.MustCompile(`(?i)\b(this|that)\s+are\b`),
		suggest: replaceFirst(`(?i)are`, "is"),
		typ:     TypeGrammar,
		explain: `Subject-verb disagreement. Singular subjects like "this/that" require "is" not "are".`,
		penalty: 15,
	},
	{
		pattern: regexp.MustCompile(`(?i)\b(these|those)\s+is\b`),
		suggest: replaceFirst(`(?i)\bis\b`, "are"),
		typ:     TypeGrammar,
		explain: `Subject-verb disagreement. Plural subjects like "these/those" require "are" not "is".`,
		penalty: 15,
	},
	// past participles
	{
		pattern: regexp.MustCompile(`(?i)\bhave\s+went\b`),
		suggest: fixed("have gone"),
		typ:     TypeGrammar,
		explain: `Incorrect past participle. Use "have gone" instead of "have went".`,
		penalty: 20,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bhave\s+came\b`),
		suggest: fixed("have come"),
		typ:     TypeGrammar,
		explain: `Incorrect past participle. Use "have come" instead of "have came".`,
		penalty: 20,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bhave\s+did\b`),
		suggest: fixed("have done"),
		typ:     TypeGrammar,
		explain: `Incorrect past participle. Use "have done" instead of "have did".`,
		penalty: 20,
	},
	// irregular verbs
	{
		pattern: regexp.MustCompile(`(?i)\bI\s+seen\b`),
		suggest: fixed("I saw"),
		typ:     TypeGrammar,
		explain: `Incorrect verb form. Use "I saw" (past tense) or "I have seen" (present perfect).`,
		penalty: 18,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bI\s+done\b`),
		suggest: fixed("I did"),
		typ:     TypeGrammar,
		explain: `Incorrect verb form. Use "I did" (past tense) or "I have done" (present perfect).`,
		penalty: 18,
	},
	// double negatives
	{
		pattern: regexp.MustCompile(`(?i)\bdon't\s+have\s+no\b`),
		suggest: fixed("don't have any"),
		typ:     TypeGrammar,
		explain: `Double negative. Use "don't have any" instead of "don't have no".`,
		penalty: 15,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bcan't\s+get\s+no\b`),
		suggest: fixed("can't get any"),
		typ:     TypeGrammar,
		explain: `Double negative. Use "can't get any" instead of "can't get no".`,
		penalty: 15,
	},
	// pronoun case
	{
		pattern: regexp.MustCompile(`(?i)\bme\s+and\s+\w+\s+(am|is|are|was|were|will|would|can|could|should)\b`),
		suggest: replaceFirst(`(?i)me\s+and`, "I and"),
		typ:     TypeGrammar,
		explain: `Incorrect pronoun case. Use "I" as a subject, not "me".`,
		penalty: 12,
	},
	// its / it's
	{
		pattern: regexp.MustCompile(`(?i)\b(its)\s+\w+(?:ing|ed)\b`),
		group:   1,
		suggest: fixed("it's"),
		typ:     TypeGrammar,
		explain: `Possible apostrophe error. Use "it's" (it is) instead of "its" (possessive) in this context.`,
		penalty: 10,
	},
	// word confusion
	{
		pattern: regexp.MustCompile(`(?i)\bthere\s+(house|car|book|phone|computer)\b`),
		suggest: replaceFirst(`(?i)there`, "their"),
		typ:     TypeSpelling,
		explain: `Possible word confusion. Use "their" (possessive) instead of "there" (location).`,
		penalty: 8,
	},
	{
		pattern: regexp.MustCompile(`(?i)\byour\s+(going|coming|leaving|running)\b`),
		suggest: replaceFirst(`(?i)your`, "you're"),
		typ:     TypeSpelling,
		explain: `Word confusion. Use "you're" (you are) instead of "your" (possessive).`,
		penalty: 8,
	},
	// prepositions and "of" for "have"
	{
		pattern: regexp.MustCompile(`(?i)\bdifferent\s+than\b`),
		suggest: fixed("different from"),
		typ:     TypeGrammar,
		explain: `Preposition error. Use "different from" instead of "different than".`,
		penalty: 5,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bshould\s+of\b`),
		suggest: fixed("should have"),
		typ:     TypeGrammar,
		explain: `Common error. Use "should have" instead of "should of".`,
		penalty: 12,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bcould\s+of\b`),
		suggest: fixed("could have"),
		typ:     TypeGrammar,
		explain: `Common error. Use "could have" instead of "could of".`,
		penalty: 12,
	},
	{
		pattern: regexp.MustCompile(`(?i)\bwould\s+of\b`),
		suggest: fixed("would have"),
		typ:     TypeGrammar,
		explain: `Common error. Use "would have" instead of "would of".`,
		penalty: 12,
	},
}

// CheckRules checks text against the built-in rule catalogue.
// Every match costs its rule's penalty from a base score; positions are in characters.
func CheckRules(text string) Result {
	res := Result{
		OriginalText: text,
		Errors:       []Error{},
		Source:       SourceRules,
	}
	score := rulesBaseScore
	for ruleIdx, r := range rules {
		for matchIdx, loc := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*r.group], loc[2*r.group+1]
			errText := text[start:end]
			res.Errors = append(res.Errors, Error{
				ID:          fmt.Sprintf("error_%d_%d", ruleIdx, matchIdx),
				Text:        errText,
				Suggestion:  r.suggest(errText),
				Type:        r.typ,
				Position:    Position{Start: charIndex(text, start), End: charIndex(text, end)},
				Explanation: r.explain,
			})
			score -= r.penalty
		}
	}

	res.CorrectedText = text
	for _, e := range res.Errors {
		res.CorrectedText = strings.Replace(res.CorrectedText, e.Text, e.Suggestion, 1)
	}
	res.Score = clampScore(score)
	return res
}

func charIndex(s string, byteIdx int) int {
	return utf8.RuneCountInString(s[:byteIdx])
}
