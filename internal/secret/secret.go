package secret

import "time"

// Category classifies a secret. The set is fixed; callers cannot invent
// new categories.
type Category string

const (
	CategoryPassword    Category = "password"
	CategoryAPIKey      Category = "api_key"
	CategoryToken       Category = "token"
	CategoryCertificate Category = "certificate"
	CategoryNote        Category = "note"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryPassword,
	CategoryAPIKey,
	CategoryToken,
	CategoryCertificate,
	CategoryNote,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Secret is the full record as seen by callers. Value is held in the
// secure value store and is never written to the metadata file.
type Secret struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Value     string    `json:"value"`
	Category  Category  `json:"category"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata is the persisted projection of Secret, excluding Value.
// The ordered sequence of Metadata entries is the entire on-disk state.
type Metadata struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  Category  `json:"category"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Meta returns the metadata projection of s.
func (s Secret) Meta() Metadata {
	return Metadata{
		ID:        s.ID,
		Title:     s.Title,
		Category:  s.Category,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// WithValue attaches a value to the metadata, producing the full record.
func (m Metadata) WithValue(value string) Secret {
	return Secret{
		ID:        m.ID,
		Title:     m.Title,
		Value:     value,
		Category:  m.Category,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CloneAll returns a copy of the given metadata sequence. The registry
// uses it to capture pre-operation state for rollback.
func CloneAll(entries []Metadata) []Metadata {
	if entries == nil {
		return nil
	}
	out := make([]Metadata, len(entries))
	copy(out, entries)
	return out
}
