package match

import (
	"math"
	"strings"
	"unicode"
)

// tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tfidfCosine computes the cosine similarity of two token lists weighted by
// TF-IDF over the two-document corpus {a, b}. The vocabulary is the union of
// tokens in either document. IDF uses 1 + ln(N/df) so tokens shared by both
// documents still carry weight; identical documents score exactly 1.
// Either document empty means similarity 0.
func tfidfCosine(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	countA := termCounts(a)
	countB := termCounts(b)

	vocab := make(map[string]struct{}, len(countA)+len(countB))
	for t := range countA {
		vocab[t] = struct{}{}
	}
	for t := range countB {
		vocab[t] = struct{}{}
	}

	var dot, normA, normB float64
	for t := range vocab {
		df := 0
		if countA[t] > 0 {
			df++
		}
		if countB[t] > 0 {
			df++
		}
		idf := 1 + math.Log(2/float64(df))

		wa := float64(countA[t]) / float64(len(a)) * idf
		wb := float64(countB[t]) / float64(len(b)) * idf

		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// jaccardSimilarity returns the Jaccard index of two tag lists, compared
// case-insensitively. Both empty means 0.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[strings.ToLower(t)] = true
	}

	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[strings.ToLower(t)] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}

	unionSize := len(setA) + len(setB) - intersection
	if unionSize == 0 {
		return 0
	}
	return float64(intersection) / float64(unionSize)
}
