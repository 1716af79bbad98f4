package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// CachedCatalog serves TitleByID from an expiring LRU cache in front of another Catalog.
// Unknown titles and lookup errors are not cached. Titles and CountTitles always go to the
// underlying catalog.
type CachedCatalog struct {
	Catalog

	titles *expirable.LRU[core.TitleIDString, Title]
}

// NewCachedCatalog caches up to size titles for ttl each.
func NewCachedCatalog(catalog Catalog, size int, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		Catalog: catalog,
		titles:  expirable.NewLRU[core.TitleIDString, Title](size, nil, ttl),
	}
}

func (c *CachedCatalog) TitleByID(ctx context.Context, titleID core.TitleIDString) (Title, error) {
	if title, ok := c.titles.Get(titleID); ok {
		return title, nil
	}

	title, err := c.Catalog.TitleByID(ctx, titleID)
	if err != nil {
		return Title{}, err
	}

	c.titles.Add(titleID, title)

	return title, nil
}

// Invalidate drops a cached title, e.g. after its total copies changed.
func (c *CachedCatalog) Invalidate(titleID core.TitleIDString) {
	c.titles.Remove(titleID)
}
