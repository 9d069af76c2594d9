package core

import (
	"strings"
	"time"
)

const (
	PocketPrimary PocketType = "primary"
	PocketCustom  PocketType = "custom"

	PocketActive   PocketStatus = "active"
	PocketArchived PocketStatus = "archived"

	// PrimaryPocketID identifies the single primary pocket. Transactions with
	// an empty pocket reference belong to it.
	PrimaryPocketID = "primary"
	// PrimaryPocketName is the display name given to the lazily created primary pocket.
	PrimaryPocketName = "Utama"
)

type (
	PocketType   string
	PocketStatus string

	Pocket struct {
		ID             string       `json:"id"`
		Name           string       `json:"name"`
		Type           PocketType   `json:"type"`
		Icon           string       `json:"icon,omitempty"`
		Color          string       `json:"color,omitempty"`
		Order          int          `json:"order"`
		Status         PocketStatus `json:"status"`
		ArchivedAt     *time.Time   `json:"archivedAt,omitempty"`
		ArchivedReason *string      `json:"archivedReason,omitempty"`
		EnableWishlist *bool        `json:"enableWishlist,omitempty"`
		CreatedAt      time.Time    `json:"createdAt"`
		UpdatedAt      time.Time    `json:"updatedAt"`
	}

	// PocketDraft is the input for creating a custom pocket.
	PocketDraft struct {
		Name           string
		Icon           string
		Color          string
		EnableWishlist *bool
	}

	// PocketUpdate carries the fields an edit may change. Nil means unchanged.
	PocketUpdate struct {
		Name           *string
		Icon           *string
		Color          *string
		EnableWishlist *bool
	}

	// PocketFilter selects pockets by status and type. Empty values match all.
	PocketFilter struct {
		Status PocketStatus
		Type   PocketType
	}
)

func (p Pocket) IsPrimary() bool {
	return p.Type == PocketPrimary
}

func (p Pocket) IsActive() bool {
	return p.Status == PocketActive
}

// WishlistEnabled resolves the optional flag, which defaults to true.
func (p Pocket) WishlistEnabled() bool {
	return p.EnableWishlist == nil || *p.EnableWishlist
}

func (f PocketFilter) Match(p Pocket) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	return true
}

func (d PocketDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return NewValidationError("name", "pocket name cannot be empty")
	}
	if len(d.Name) > 100 {
		return NewValidationError("name", "pocket name too long (max 100 characters)")
	}
	return nil
}

func (u PocketUpdate) Validate() error {
	if u.Name != nil {
		return PocketDraft{Name: *u.Name}.Validate()
	}
	return nil
}

// NormalizePocketID maps the empty reference to the primary pocket.
func NormalizePocketID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return PrimaryPocketID
	}
	return id
}
