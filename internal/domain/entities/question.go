// Package entities contains core domain data structures.
package entities

import "time"

// Language is the language a question or document is written in.
type Language string

const (
	LanguageArabic  Language = "AR"
	LanguageEnglish Language = "EN"
	LanguageFrench  Language = "FR"
)

// Valid reports whether the language is one of the supported values.
func (l Language) Valid() bool {
	switch l {
	case LanguageArabic, LanguageEnglish, LanguageFrench:
		return true
	}
	return false
}

// Question is an immutable record of a submitted question. It is created on
// submission and never mutated; answers reference it by ID.
type Question struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Language    Language  `json:"language"`
	RequesterID string    `json:"requester_id"`
	CreatedAt   time.Time `json:"created_at"`
}
