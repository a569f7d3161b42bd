// internal/app/features/gps/types.go
package gps

import (
	"time"

	"github.com/vibesslabs/vibess-server/internal/domain/models"
)

// gpResponse is the full GP view returned to members and viewers. Status
// and time_left are derived from stored timestamps at read time, never
// trusted from the stored status field alone.
type gpResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	SubType      string   `json:"sub_type"`
	SpecificName string   `json:"specific_name,omitempty"`
	Genre        string   `json:"genre,omitempty"`
	Description  string   `json:"description,omitempty"`
	TalkTopics   []string `json:"talk_topics"`

	Members    int    `json:"members"`
	MaxMembers int    `json:"max_members"`
	InviteCode string `json:"invite_code,omitempty"`

	Status      string `json:"status"`
	IsPermanent bool   `json:"is_permanent"`
	// TimeLeft is whole minutes until expiry; null for permanent groups.
	TimeLeft *int `json:"time_left"`

	ConversionEligible bool `json:"permanent_conversion_eligible"`
	MessageCount       int  `json:"message_count"`

	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// gpSummary is the compact form used in listings and suggestions.
type gpSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Members     int    `json:"members"`
	Description string `json:"description,omitempty"`
}

// compositeName builds the display title from classification fields:
// the specific name when one was given, otherwise the sub-type, with the
// genre appended when present.
func compositeName(g *models.GP) string {
	name := g.SpecificName
	if name == "" {
		name = g.SubType
	}
	if g.Genre != "" {
		name += " (" + g.Genre + ")"
	}
	return name
}

// toResponse derives the client view at the given instant. The invite
// code is included only for members.
func toResponse(g *models.GP, now time.Time, member bool) gpResponse {
	resp := gpResponse{
		ID:           g.ID.Hex(),
		Name:         compositeName(g),
		Category:     g.Category,
		SubType:      g.SubType,
		SpecificName: g.SpecificName,
		Genre:        g.Genre,
		Description:  g.Description,
		TalkTopics:   g.TalkTopics,

		Members:    len(g.Members),
		MaxMembers: g.MaxMembers,

		Status:      g.EffectiveStatus(now),
		IsPermanent: g.IsPermanent,
		TimeLeft:    g.TimeLeft(now),

		ConversionEligible: g.PermanentConversionEligible,
		MessageCount:       g.MessageCount,

		StartedAt: g.StartedAt,
		ExpiresAt: g.ExpiresAt,
	}
	if member {
		resp.InviteCode = g.InviteCode
	}
	return resp
}

func toSummary(g *models.GP) gpSummary {
	return gpSummary{
		ID:          g.ID.Hex(),
		Name:        compositeName(g),
		Members:     len(g.Members),
		Description: g.Description,
	}
}
