// Package services contains domain business logic.
package services

import (
	"math"
	"time"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// recencyWindowYears is how far back a source still counts as recent for the
// confidence boost.
const recencyWindowYears = 20

// ScoreConfidence computes the confidence score for a candidate set.
//
// The score is policy, not learned: mean source credibility, plus up to 20
// points proportional to the fraction of OFFICIAL candidates, plus up to 10
// points proportional to the fraction published within the last 20 years.
// Deterministic given the candidate set and clock, clamped to [0,100].
func ScoreConfidence(candidates []entities.Candidate, now time.Time) int {
	if len(candidates) == 0 {
		return 0
	}

	n := float64(len(candidates))

	var creditSum, officialCount, recentCount float64
	currentYear := now.Year()
	for _, c := range candidates {
		creditSum += float64(c.Credibility)
		if c.AuthorityLevel == entities.AuthorityOfficial {
			officialCount++
		}
		if c.Year != 0 && currentYear-c.Year < recencyWindowYears {
			recentCount++
		}
	}

	avgCredibility := creditSum / n
	officialBoost := (officialCount / n) * 20
	recencyBoost := (recentCount / n) * 10

	score := int(math.Round(avgCredibility + officialBoost + recencyBoost))
	return clampScore(score)
}

// ScoreControversy computes the controversy score for a candidate set.
//
// A set drawing on many different authority tiers signals a contested topic,
// as do many CLAIM-level sources. Candidate sets with at most one candidate
// or a single authority level score zero.
func ScoreControversy(candidates []entities.Candidate) int {
	n := len(candidates)
	if n <= 1 {
		return 0
	}

	levels := make(map[entities.AuthorityLevel]int, 5)
	for _, c := range candidates {
		levels[c.AuthorityLevel]++
	}

	unique := len(levels)
	if unique <= 1 {
		return 0
	}

	base := math.Round(float64(unique-1) / float64(n-1) * 100)
	claimBoost := float64(levels[entities.AuthorityClaim]) / float64(n) * 30

	return clampScore(int(math.Round(base + claimBoost)))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
