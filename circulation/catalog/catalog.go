package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// Role decides which desk operations a patron may call.
type Role string

const (
	RoleMember    Role = "member"
	RoleLibrarian Role = "librarian"
)

// ParseRole accepts "member" and "librarian" case-insensitively.
func ParseRole(s string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(s))); role {
	case RoleMember, RoleLibrarian:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Patron is the resolved caller of a desk operation.
type Patron struct {
	ID   uuid.UUID
	Name string
	Role Role
}

// IsLibrarian reports whether the patron may call librarian-only operations.
func (p Patron) IsLibrarian() bool {
	return p.Role == RoleLibrarian
}

// Title is a catalog entry. TotalCopies is managed by the catalog, available copies are not
// stored here but projected from the loan ledger.
type Title struct {
	ID              core.TitleIDString
	Name            string
	Author          string
	ISBN            string
	Genre           string
	Tags            []string
	PublicationYear int
	TotalCopies     int
}

// TitleLookup finds a title by id, wrapping core.ErrNotFound for unknown ids.
type TitleLookup interface {
	TitleByID(ctx context.Context, titleID core.TitleIDString) (Title, error)
}

// Catalog is the read side of the book catalog.
type Catalog interface {
	TitleLookup
	Titles(ctx context.Context) ([]Title, error)
	CountTitles(ctx context.Context) (int, error)
}

// PatronDirectory is the read side of the user directory.
type PatronDirectory interface {
	PatronByID(ctx context.Context, patronID uuid.UUID) (Patron, error)
	// CountMembers counts patrons with the member role, librarians are staff.
	CountMembers(ctx context.Context) (int, error)
}

// TitleNotFound wraps core.ErrNotFound with the title id.
func TitleNotFound(titleID core.TitleIDString) error {
	return fmt.Errorf("title %s: %w", titleID, core.ErrNotFound)
}

// PatronNotFound wraps core.ErrNotFound with the patron id.
func PatronNotFound(patronID uuid.UUID) error {
	return fmt.Errorf("patron %s: %w", patronID, core.ErrNotFound)
}

// SortByID orders titles by id, which is the order every adapter returns them in.
func SortByID(titles []Title) {
	slices.SortFunc(titles, func(a, b Title) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// IndexByID maps titles by their id.
func IndexByID(titles []Title) map[core.TitleIDString]Title {
	index := make(map[core.TitleIDString]Title, len(titles))
	for _, title := range titles {
		index[title.ID] = title
	}

	return index
}
