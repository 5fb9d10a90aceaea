package domain

// Personality selects the response-provider behavior profile for a robot slot.
type Personality string

const (
	PersonalityAnalytical Personality = "analytical"
	PersonalityPlayful    Personality = "playful"
	PersonalitySkeptical  Personality = "skeptical"
	PersonalityPoetic     Personality = "poetic"
	// PersonalityCustom marks a profile defined outside the known set; the
	// provider receives the display name as its only steering signal.
	PersonalityCustom Personality = "custom"
)

// KnownPersonalities is the rotation used when seeding robot slots.
var KnownPersonalities = []Personality{
	PersonalityAnalytical,
	PersonalityPlayful,
	PersonalitySkeptical,
	PersonalityPoetic,
}

// Participant is one roster slot in a match. IsAI is a required field: a slot
// is either a person or a robot, never an implicit default.
type Participant struct {
	Identity    Identity    `json:"identity"`
	IsAI        bool        `json:"isAI"`
	DisplayName string      `json:"displayName"`
	IsConnected bool        `json:"isConnected"`
	Personality Personality `json:"personality,omitempty"`
	UserID      string      `json:"userId,omitempty"`
}

// robotNames is the pool of persona names given to robot slots.
var robotNames = []string{"Nova", "Circuit", "Echo", "Vector", "Pixel", "Socket", "Relay"}

// RobotParticipant builds a robot slot with a persona name and personality
// drawn from the fixed rotations. slot is the zero-based robot index.
func RobotParticipant(identity Identity, slot int) Participant {
	return Participant{
		Identity:    identity,
		IsAI:        true,
		DisplayName: robotNames[slot%len(robotNames)],
		Personality: KnownPersonalities[slot%len(KnownPersonalities)],
	}
}
