// Package catalog is the boundary to the book catalog and the patron directory.
//
// Both are owned by other systems, the circulation core only reads them: a Title lookup
// for total copies and the attributes the recommender works with, and the Patron (id and role)
// behind an authenticated request. Adapters exist for an in-memory store and for the
// books / users tables via gorm, and CachedCatalog puts an expiring LRU in front of either.
package catalog
