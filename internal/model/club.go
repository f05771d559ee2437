// Package model defines the data structures used throughout the application.
//
// Each entity comes in two shapes: the entity struct itself, whose relation
// fields expand one hop into summary values, and a Summary struct carrying
// scalar fields only. Relations always expand to summaries, never to full
// entities, so the mutual club↔user↔post references can never recurse.
package model

// Club represents a campus club in the directory.
//
// Href and ApplicationRequired are pointers because both are optional:
// a club may have no external page, and whether an application is needed
// may simply be unknown (distinct from a definite yes or no).
type Club struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Level               string  `json:"level"`
	Category            string  `json:"category"`
	Href                *string `json:"href"`
	ApplicationRequired *bool   `json:"application_required"`

	// InterestedUsers holds the users who favorited this club.
	InterestedUsers []UserSummary `json:"interested_users"`
}

// ClubSummary is the no-relations view of a Club, used when a club appears
// inside another entity's serialization.
type ClubSummary struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Level               string  `json:"level"`
	Category            string  `json:"category"`
	Href                *string `json:"href"`
	ApplicationRequired *bool   `json:"application_required"`
}

// Summary returns the scalar-only view of the club.
func (c *Club) Summary() ClubSummary {
	return ClubSummary{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		Level:               c.Level,
		Category:            c.Category,
		Href:                c.Href,
		ApplicationRequired: c.ApplicationRequired,
	}
}
