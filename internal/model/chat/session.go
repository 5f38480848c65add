package chat

import "time"

// Session identifies one anonymous conversation. The turns themselves are
// owned by the service-level session object and are not part of this record.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
}
