package entities

// AuthorityLevel classifies how authoritative a source is. It is independent
// of SourceStatus: an official source can still be contested, and a community
// claim can be verified.
type AuthorityLevel string

const (
	AuthorityOfficial  AuthorityLevel = "OFFICIAL"
	AuthorityScholarly AuthorityLevel = "SCHOLARLY"
	AuthorityPress     AuthorityLevel = "PRESS"
	AuthorityCommunity AuthorityLevel = "COMMUNITY"
	AuthorityClaim     AuthorityLevel = "CLAIM"
)

// Valid reports whether the authority level is one of the supported values.
func (a AuthorityLevel) Valid() bool {
	switch a {
	case AuthorityOfficial, AuthorityScholarly, AuthorityPress, AuthorityCommunity, AuthorityClaim:
		return true
	}
	return false
}

// SourceStatus is the verification state of a source. Only documents owned by
// VERIFIED sources are eligible for retrieval.
type SourceStatus string

const (
	SourceVerified   SourceStatus = "VERIFIED"
	SourceUnverified SourceStatus = "UNVERIFIED"
	SourceContested  SourceStatus = "CONTESTED"
)

// Valid reports whether the status is one of the supported values.
func (s SourceStatus) Valid() bool {
	switch s {
	case SourceVerified, SourceUnverified, SourceContested:
		return true
	}
	return false
}

// Source is a publisher of evidentiary documents. Credibility is set by an
// editor (0-100), never derived.
type Source struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Publisher      string         `json:"publisher"`
	URL            string         `json:"url,omitempty"`
	AuthorityLevel AuthorityLevel `json:"authority_level"`
	Status         SourceStatus   `json:"status"`
	Credibility    int            `json:"credibility"`
	Year           int            `json:"year,omitempty"`
	Language       Language       `json:"language"`
}
