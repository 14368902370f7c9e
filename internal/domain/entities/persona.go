package entities

// Persona selects the system instruction template used when generating an
// answer. It changes tone and style only; retrieval and scoring are
// persona-independent.
type Persona string

const (
	PersonaNeutral Persona = "NEUTRAL"
	PersonaZaatar  Persona = "ZAATAR"
)

// Valid reports whether the persona is one of the supported values.
func (p Persona) Valid() bool {
	switch p {
	case PersonaNeutral, PersonaZaatar:
		return true
	}
	return false
}
