package summarize

import (
	"math"
	"strings"
)

const (
	dampingFactor = 0.85
	maxIterations = 100
	convergence   = 1e-6
)

// Stop words excluded from sentence similarity scoring.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "were": true, "to": true, "of": true, "and": true, "or": true,
	"in": true, "that": true, "have": true, "has": true, "it": true,
	"for": true, "not": true, "on": true, "with": true, "as": true,
	"you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "they": true, "we": true, "his": true,
	"her": true, "its": true, "their": true, "our": true,
}

// tokenize splits a sentence into lowercased content words, trimming
// punctuation and dropping stop words.
func tokenize(sentence string) []string {
	words := strings.Fields(sentence)
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}
	return filtered
}

// similarity scores lexical overlap between two token sets, normalized by
// sentence lengths so long sentences do not dominate the graph.
func similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	overlap := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if set[t] && !seen[t] {
			overlap++
			seen[t] = true
		}
	}
	if overlap == 0 {
		return 0
	}
	return float64(overlap) / (math.Log(float64(len(a)+1)) + math.Log(float64(len(b)+1)))
}

// rankSentences scores sentences by eigenvector centrality over the pairwise
// similarity graph, via damped power iteration. Deterministic for a fixed
// input.
func rankSentences(sentences []string) []float64 {
	n := len(sentences)
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}

	tokens := make([][]string, n)
	for i, s := range sentences {
		tokens[i] = tokenize(s)
	}

	weights := make([][]float64, n)
	outSums := make([]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			w := similarity(tokens[i], tokens[j])
			weights[i][j] = w
			outSums[i] += w
		}
	}

	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}
	base := (1 - dampingFactor) / float64(n)

	for iter := 0; iter < maxIterations; iter++ {
		next := make([]float64, n)
		var delta float64
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				if j == i || weights[j][i] == 0 || outSums[j] == 0 {
					continue
				}
				sum += weights[j][i] / outSums[j] * scores[j]
			}
			next[i] = base + dampingFactor*sum
			delta += math.Abs(next[i] - scores[i])
		}
		scores = next
		if delta < convergence {
			break
		}
	}
	return scores
}
