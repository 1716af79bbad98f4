package catalog

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// MemoryCatalog is a Catalog and PatronDirectory kept in process memory.
// It serves local runs without a database and is the fixture of most tests.
type MemoryCatalog struct {
	mu      sync.RWMutex
	titles  map[core.TitleIDString]Title
	patrons map[uuid.UUID]Patron
}

// NewMemoryCatalog creates an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		titles:  make(map[core.TitleIDString]Title),
		patrons: make(map[uuid.UUID]Patron),
	}
}

// PutTitle adds or replaces a title.
func (c *MemoryCatalog) PutTitle(title Title) {
	c.mu.Lock()
	defer c.mu.Unlock()

	title.Tags = slices.Clone(title.Tags)
	c.titles[title.ID] = title
}

// PutPatron adds or replaces a patron.
func (c *MemoryCatalog) PutPatron(patron Patron) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.patrons[patron.ID] = patron
}

func (c *MemoryCatalog) TitleByID(_ context.Context, titleID core.TitleIDString) (Title, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	title, ok := c.titles[titleID]
	if !ok {
		return Title{}, TitleNotFound(titleID)
	}

	return title, nil
}

func (c *MemoryCatalog) Titles(_ context.Context) ([]Title, error) {
	c.mu.RLock()
	titles := slices.Collect(maps.Values(c.titles))
	c.mu.RUnlock()

	SortByID(titles)

	return titles, nil
}

func (c *MemoryCatalog) CountTitles(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.titles), nil
}

func (c *MemoryCatalog) PatronByID(_ context.Context, patronID uuid.UUID) (Patron, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	patron, ok := c.patrons[patronID]
	if !ok {
		return Patron{}, PatronNotFound(patronID)
	}

	return patron, nil
}

func (c *MemoryCatalog) CountMembers(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	members := 0
	for _, patron := range c.patrons {
		if patron.Role == RoleMember {
			members++
		}
	}

	return members, nil
}

// SaveTitle is PutTitle with the signature of GormCatalog.SaveTitle.
func (c *MemoryCatalog) SaveTitle(_ context.Context, title Title) error {
	c.PutTitle(title)

	return nil
}

// SavePatron is PutPatron with the signature of GormCatalog.SavePatron, the email is not kept.
func (c *MemoryCatalog) SavePatron(_ context.Context, patron Patron, _ string) error {
	c.PutPatron(patron)

	return nil
}
