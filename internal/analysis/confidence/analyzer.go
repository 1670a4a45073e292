// Package confidence reads the certainty a diagnosis reply expresses about itself.
package confidence

import (
	"strings"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/diagnosis"
)

// Decision is the outcome of scanning one diagnosis reply.
type Decision struct {
	Level             diagnosis.Confidence
	NeedsClearerImage bool
	Score             int
}

var labelPrefixes = []string{"confidence level", "confidence"}

var keywordBuckets = map[diagnosis.Confidence][]string{
	diagnosis.ConfidenceHigh: {
		"clearly", "definitely", "certainly", "confident", "characteristic", "classic symptoms",
		"typical of", "consistent with",
	},
	diagnosis.ConfidenceMedium: {
		"likely", "probably", "appears to be", "suggests", "most likely", "indicative of",
	},
	diagnosis.ConfidenceLow: {
		"possibly", "might be", "may be", "could be", "uncertain", "difficult to determine",
		"hard to tell", "cannot confirm", "not sure",
	},
}

var clearerImageHints = []string{
	"clearer", "unclear", "blurry", "blurred", "not a plant", "not a leaf", "no leaf",
	"does not appear to be a", "doesn't appear to be a", "unable to identify", "better lighting",
	"closer photo", "another photo", "upload a",
}

// Analyze inspects a model reply. An explicit "Confidence Level: X" line wins
// over keyword evidence.
func Analyze(reply string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(reply))
	if normalized == "" {
		return Decision{Level: diagnosis.ConfidenceUnknown, NeedsClearerImage: true}
	}

	decision := Decision{Level: diagnosis.ConfidenceUnknown}
	for _, hint := range clearerImageHints {
		if strings.Contains(normalized, hint) {
			decision.NeedsClearerImage = true
			break
		}
	}

	if level, ok := explicitLevel(normalized); ok {
		decision.Level = level
		decision.Score = 10
		return decision
	}

	best, bestScore := scoreText(normalized)
	if bestScore == 0 {
		if decision.NeedsClearerImage {
			decision.Level = diagnosis.ConfidenceLow
		}
		return decision
	}

	decision.Level = best
	decision.Score = bestScore
	if decision.NeedsClearerImage && best == diagnosis.ConfidenceHigh {
		decision.Level = diagnosis.ConfidenceMedium
	}
	return decision
}

func explicitLevel(normalized string) (diagnosis.Confidence, bool) {
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "0123456789.)*-#> ")
		for _, prefix := range labelPrefixes {
			rest, ok := strings.CutPrefix(line, prefix)
			if !ok {
				continue
			}
			rest = strings.TrimLeft(rest, "*: ")
			for _, level := range []diagnosis.Confidence{diagnosis.ConfidenceHigh, diagnosis.ConfidenceMedium, diagnosis.ConfidenceLow} {
				if strings.HasPrefix(rest, string(level)) {
					return level, true
				}
			}
		}
	}
	return diagnosis.ConfidenceUnknown, false
}

func scoreText(normalized string) (diagnosis.Confidence, int) {
	scores := make(map[diagnosis.Confidence]int)
	for level, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[level] += 3
			}
		}
	}

	// Ties resolve toward the more cautious level.
	best := diagnosis.ConfidenceUnknown
	bestScore := 0
	for _, level := range []diagnosis.Confidence{diagnosis.ConfidenceLow, diagnosis.ConfidenceMedium, diagnosis.ConfidenceHigh} {
		if scores[level] > bestScore {
			best = level
			bestScore = scores[level]
		}
	}
	return best, bestScore
}
