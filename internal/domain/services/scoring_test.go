package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

func candidate(level entities.AuthorityLevel, credibility, year int) entities.Candidate {
	return entities.Candidate{
		AuthorityLevel: level,
		Credibility:    credibility,
		Year:           year,
	}
}

func TestScoreConfidence_EmptySet(t *testing.T) {
	assert.Zero(t, ScoreConfidence(nil, time.Now()))
	assert.Zero(t, ScoreConfidence([]entities.Candidate{}, time.Now()))
}

func TestScoreConfidence_MeanCredibilityOnly(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []entities.Candidate{
		candidate(entities.AuthorityPress, 60, 1950),
		candidate(entities.AuthorityPress, 40, 1960),
	}

	// No official sources, nothing recent: score is the plain mean.
	assert.Equal(t, 50, ScoreConfidence(candidates, now))
}

func TestScoreConfidence_OfficialAndRecencyBoosts(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("all official and recent clamps at 100", func(t *testing.T) {
		candidates := []entities.Candidate{
			candidate(entities.AuthorityOfficial, 95, 2010),
			candidate(entities.AuthorityScholarly, 92, 2020),
		}
		// 93.5 mean + 10 official boost + 10 recency boost, clamped.
		assert.Equal(t, 100, ScoreConfidence(candidates, now))
	})

	t.Run("half official, nothing recent", func(t *testing.T) {
		candidates := []entities.Candidate{
			candidate(entities.AuthorityOfficial, 50, 1950),
			candidate(entities.AuthorityPress, 50, 1960),
		}
		// 50 mean + 10 official boost.
		assert.Equal(t, 60, ScoreConfidence(candidates, now))
	})

	t.Run("recency window is 20 years", func(t *testing.T) {
		inside := []entities.Candidate{candidate(entities.AuthorityPress, 50, 2007)}
		outside := []entities.Candidate{candidate(entities.AuthorityPress, 50, 2006)}
		assert.Equal(t, 60, ScoreConfidence(inside, now))
		assert.Equal(t, 50, ScoreConfidence(outside, now))
	})

	t.Run("unknown year never counts as recent", func(t *testing.T) {
		candidates := []entities.Candidate{candidate(entities.AuthorityPress, 50, 0)}
		assert.Equal(t, 50, ScoreConfidence(candidates, now))
	})
}

func TestScoreControversy_SmallOrUniformSetsScoreZero(t *testing.T) {
	assert.Zero(t, ScoreControversy(nil))
	assert.Zero(t, ScoreControversy([]entities.Candidate{
		candidate(entities.AuthorityClaim, 10, 0),
	}))
	// Three candidates, all the same authority level.
	assert.Zero(t, ScoreControversy([]entities.Candidate{
		candidate(entities.AuthorityScholarly, 80, 0),
		candidate(entities.AuthorityScholarly, 85, 0),
		candidate(entities.AuthorityScholarly, 90, 0),
	}))
}

func TestScoreControversy_MixedAuthorityLevels(t *testing.T) {
	t.Run("two levels over four candidates", func(t *testing.T) {
		candidates := []entities.Candidate{
			candidate(entities.AuthorityOfficial, 90, 0),
			candidate(entities.AuthorityOfficial, 90, 0),
			candidate(entities.AuthorityPress, 60, 0),
			candidate(entities.AuthorityPress, 60, 0),
		}
		// round(1/3 * 100) = 33, no CLAIM sources.
		assert.Equal(t, 33, ScoreControversy(candidates))
	})

	t.Run("claim sources add up to 30 points", func(t *testing.T) {
		candidates := []entities.Candidate{
			candidate(entities.AuthorityOfficial, 90, 0),
			candidate(entities.AuthorityOfficial, 90, 0),
			candidate(entities.AuthorityPress, 60, 0),
			candidate(entities.AuthorityClaim, 20, 0),
		}
		// round(2/3 * 100) = 67, plus 1/4 * 30 = 7.5 → 75 after rounding.
		assert.Equal(t, 75, ScoreControversy(candidates))
	})

	t.Run("maximally spread set clamps at 100", func(t *testing.T) {
		candidates := []entities.Candidate{
			candidate(entities.AuthorityOfficial, 90, 0),
			candidate(entities.AuthorityScholarly, 85, 0),
			candidate(entities.AuthorityPress, 60, 0),
			candidate(entities.AuthorityCommunity, 40, 0),
			candidate(entities.AuthorityClaim, 20, 0),
		}
		// Base alone is 100; the claim boost cannot push past the clamp.
		assert.Equal(t, 100, ScoreControversy(candidates))
	})
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 0, clampScore(0))
	assert.Equal(t, 55, clampScore(55))
	assert.Equal(t, 100, clampScore(100))
	assert.Equal(t, 100, clampScore(140))
}
