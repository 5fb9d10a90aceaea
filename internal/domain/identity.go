package domain

// Identity is the single-letter pseudonym (A-H) a participant carries for the
// duration of a match. It conceals whether the slot is a human or a robot.
type Identity string

const (
	MinParticipants = 3
	MaxParticipants = 8
)

var identityAlphabet = []Identity{"A", "B", "C", "D", "E", "F", "G", "H"}

// AllocateIdentities returns the first total letters of the canonical alphabet.
func AllocateIdentities(total int) ([]Identity, error) {
	if total < MinParticipants || total > MaxParticipants {
		return nil, ErrInvalidPartySize
	}
	out := make([]Identity, total)
	copy(out, identityAlphabet[:total])
	return out, nil
}

// IsValidIdentity reports whether id is one of the first total canonical letters.
func IsValidIdentity(id Identity, total int) bool {
	if total < 0 || total > MaxParticipants {
		return false
	}
	for _, candidate := range identityAlphabet[:total] {
		if candidate == id {
			return true
		}
	}
	return false
}
