package summarize

import (
	"strings"
	"unicode"
)

// Abbreviations that end with a period without ending a sentence.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"no": true, "fig": true, "eg": true, "ie": true, "approx": true,
}

// splitSentences breaks text into sentences. A terminator (. ! ? or a
// fullwidth stop) ends a sentence when it is followed by whitespace and the
// next run starts a new sentence, unless the preceding token is a known
// abbreviation or a single-letter initial.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)
		if !isTerminator(r) {
			continue
		}

		// Trailing quotes and brackets belong to the sentence.
		for i+1 < len(runes) && isCloser(runes[i+1]) {
			i++
			b.WriteRune(runes[i])
		}

		if r == '.' && looksLikeAbbreviation(b.String()) {
			continue
		}

		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == len(runes) {
			flush()
			i = j - 1
			continue
		}
		// No whitespace after the terminator (e.g. "3.14", "v1.2") keeps
		// the sentence open.
		if j == i+1 {
			continue
		}
		if startsSentence(runes[j]) {
			flush()
			i = j - 1
		}
	}
	flush()
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']' || r == '”' || r == '’'
}

// startsSentence accepts an uppercase letter, a digit, an opening quote or
// bracket, or any letter from a script without case (so unspaced scripts
// still split).
func startsSentence(r rune) bool {
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	if r == '"' || r == '\'' || r == '(' || r == '[' || r == '“' || r == '‘' {
		return true
	}
	return unicode.IsLetter(r) && !unicode.IsLower(r) && !unicode.IsUpper(r)
}

// looksLikeAbbreviation inspects the token preceding the final period.
func looksLikeAbbreviation(s string) bool {
	s = strings.TrimRight(s, ".")
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	word := s[idx+1:]
	if word == "" {
		return false
	}
	// Single uppercase initial, as in "J. Smith".
	wr := []rune(word)
	if len(wr) == 1 && unicode.IsUpper(wr[0]) {
		return true
	}
	// Dotted acronyms like "e.g" keep only the last letter run.
	if dot := strings.LastIndex(word, "."); dot >= 0 {
		word = word[dot+1:]
	}
	return abbreviations[strings.ToLower(word)]
}
