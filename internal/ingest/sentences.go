package ingest

import "strings"

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]bool{
	"e.g.": true,
	"i.e.": true,
	"al.":  true,
	"etc.": true,
	"cf.":  true,
	"fig.": true,
	"eq.":  true,
	"vs.":  true,
	"dr.":  true,
	"no.":  true,
}

// SplitSentences breaks text into sentences on terminal punctuation followed
// by whitespace and an uppercase letter or digit. Common abbreviations,
// decimal numbers, and single-letter initials do not split. Good enough for
// the formal register of abstracts; anything fancier would need a real
// sentence model.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) {
			break
		}
		if runes[i+1] != ' ' && runes[i+1] != '\t' {
			continue
		}
		next := nextNonSpace(runes, i+1)
		if next < 0 || !startsSentence(runes[next]) {
			continue
		}
		if r == '.' && !splitsOnPeriod(runes, start, i) {
			continue
		}
		sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
		start = next
		i = next - 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func nextNonSpace(runes []rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] != ' ' && runes[i] != '\t' {
			return i
		}
	}
	return -1
}

func startsSentence(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '"' || r == '(' || r == '\''
}

// splitsOnPeriod reports whether the period at pos ends a sentence, given the
// sentence started at start.
func splitsOnPeriod(runes []rune, start, pos int) bool {
	wordStart := pos
	for wordStart > start && runes[wordStart-1] != ' ' && runes[wordStart-1] != '\t' {
		wordStart--
	}
	word := strings.ToLower(string(runes[wordStart : pos+1]))
	if abbreviations[word] {
		return false
	}
	// Single-letter initials like "J." in author names.
	if len(word) == 2 {
		c := rune(word[0])
		if c >= 'a' && c <= 'z' {
			return false
		}
	}
	return true
}
