package service

import (
	"regexp"
	"strings"

	"github.com/pagemend/pagemend/internal/domain/issue"
)

const (
	// splitDecisionMargin is the minimum confidence gap between the top
	// two candidates for a pre-selection.
	splitDecisionMargin = 0.15

	// garbledAdoptFloor is the confidence needed to pre-select a candidate
	// that cleans up garbled characters.
	garbledAdoptFloor = 0.85
)

var garbledChars = "�□■"

// sensitivePatterns match text that must never be corrected without a human:
// identifiers, amounts, dates, contact details.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4,}`),
	regexp.MustCompile(`https?://`),
	regexp.MustCompile(`www\.`),
	regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`),
	regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`),
	regexp.MustCompile(`\$[\d,]+`),
	regexp.MustCompile(`[A-Z]{2,}\d+`),
	regexp.MustCompile(`\d+-\d+-\d+`),
}

var properNounPattern = regexp.MustCompile(`^[A-Z][a-z]+$`)

func containsSensitivePattern(text string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func looksLikeProperNoun(text string) bool {
	return properNounPattern.MatchString(text)
}

func containsGarbled(text string) bool {
	return strings.ContainsAny(text, garbledChars)
}

// adoptionDecision decides whether the strongest candidate should be
// pre-selected for the reviewer. It never applies a correction; a non-nil
// result only sets the chosen candidate on the issue.
func adoptionDecision(detectedText string, candidates []issue.Candidate, threshold float64) *int {
	if len(candidates) == 0 {
		return nil
	}

	best := 0
	for i, cand := range candidates {
		if cand.Confidence > candidates[best].Confidence {
			best = i
		}
	}
	top := candidates[best]

	if containsSensitivePattern(detectedText) || containsSensitivePattern(top.Text) {
		return nil
	}

	if looksLikeProperNoun(top.Text) {
		return nil
	}

	runnerUp := -1.0
	for i, cand := range candidates {
		if i != best && cand.Confidence > runnerUp {
			runnerUp = cand.Confidence
		}
	}
	if runnerUp >= 0 && top.Confidence-runnerUp < splitDecisionMargin {
		return nil
	}

	if containsGarbled(detectedText) && !containsGarbled(top.Text) && top.Confidence > garbledAdoptFloor {
		return &best
	}

	if top.Confidence >= threshold {
		return &best
	}

	return nil
}
