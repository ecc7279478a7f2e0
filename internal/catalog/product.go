package catalog

import (
	"fmt"
	"time"
)

type Product struct {
	ID         int64     `json:"id"`
	BusinessID string    `json:"business_id"`
	Slug       string    `json:"slug,omitempty"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Ref is one resolvable product reference from a cart line. Resolution tries
// BusinessID, then Slug, then ID; zero values mean "not supplied".
type Ref struct {
	ID         int64
	BusinessID string
	Slug       string
}

func (r Ref) Empty() bool { return r.ID == 0 && r.BusinessID == "" && r.Slug == "" }

// Key renders the reference for error reporting, most specific scheme first.
func (r Ref) Key() string {
	if r.BusinessID != "" {
		return "b:" + r.BusinessID
	}
	if r.Slug != "" {
		return "s:" + r.Slug
	}
	return fmt.Sprintf("i:%012d", r.ID)
}

func FormatBusinessID(id int64) string { return fmt.Sprintf("PID%05d", id) }
