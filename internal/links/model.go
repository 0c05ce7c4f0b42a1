package links

import (
	"time"

	"github.com/google/uuid"

	"github.com/shortyapp/shorty/internal/auth"
)

// Link maps a short code to its target URL. Links are never modified after
// creation; they are only created and deleted.
type Link struct {
	ID        uuid.UUID     `json:"id"`
	Code      string        `json:"code"`
	TargetURL string        `json:"targetURL"`
	OwnerID   auth.Identity `json:"ownerId"`
	CreatedAt time.Time     `json:"createdAt"`
}
