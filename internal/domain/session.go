package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one live event-channel connection watching a match. Sessions
// live in an injected repository rather than process-global maps so their
// lifecycle is testable and the store can be swapped out.
type Session struct {
	ID          string
	MatchID     uuid.UUID
	Identity    Identity
	ConnectedAt time.Time
}
