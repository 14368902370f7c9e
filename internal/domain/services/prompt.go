package services

import (
	"fmt"
	"strings"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// contextExcerptLength is how many runes of each candidate's content are
// included in the generation prompt.
const contextExcerptLength = 500

const basePrompt = `You are Qadim, an AI assistant specialized in Lebanese and Phoenician history, politics, and culture. You provide accurate, well-sourced answers based on historical documents and scholarly research.

Guidelines:
- Always cite sources using [1], [2], etc. format
- Be precise and factual
- Acknowledge uncertainty when sources conflict
- Group information by authority level (Official, Scholarly, Press, Community, Claims)
- Maintain academic rigor while being accessible`

const neutralAddendum = `

Persona: You're in "Neutral Mode" - maintain academic objectivity:
- Use formal, scholarly language
- Present information without cultural bias
- Focus on facts and verifiable information
- Maintain professional academic tone`

const zaatarAddendum = `

Persona: You're in "Zaatar Mode" - maintain Lebanese cultural warmth and context:
- Use Lebanese expressions and cultural references where appropriate
- Show pride in Lebanese heritage while remaining factual
- Include cultural context that helps explain historical significance
- Use a slightly more conversational tone while maintaining accuracy`

// BuildSystemPrompt selects the system instruction for a persona and answer
// language. The persona changes tone and style only; it never affects
// retrieval or scoring.
func BuildSystemPrompt(persona entities.Persona, lang entities.Language) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	switch persona {
	case entities.PersonaZaatar:
		b.WriteString(zaatarAddendum)
	case entities.PersonaNeutral:
		b.WriteString(neutralAddendum)
	default:
		b.WriteString(neutralAddendum)
	}

	switch lang {
	case entities.LanguageArabic:
		b.WriteString("\n\nAnswer in Arabic.")
	case entities.LanguageFrench:
		b.WriteString("\n\nAnswer in French.")
	case entities.LanguageEnglish:
		b.WriteString("\n\nAnswer in English.")
	}

	return b.String()
}

// BuildUserPrompt composes the question and the numbered evidence context the
// generator cites against. Candidate order here defines the 1-indexed marker
// positions that citation extraction resolves later.
func BuildUserPrompt(question string, candidates []entities.Candidate) string {
	blocks := make([]string, 0, len(candidates))
	for i, c := range candidates {
		year := "Unknown year"
		if c.Year != 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		publisher := c.Publisher
		if publisher == "" {
			publisher = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s (%s, %s)\nPublisher: %s\nCredibility: %d/100\nContent: %s...",
			i+1, c.SourceTitle, c.AuthorityLevel, year, publisher, c.Credibility, excerpt(c.Content)))
	}

	return fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nPlease provide a comprehensive answer based on the provided sources. Include specific citations using [1], [2], etc. format.",
		question, strings.Join(blocks, "\n\n"))
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > contextExcerptLength {
		runes = runes[:contextExcerptLength]
	}
	return string(runes)
}
