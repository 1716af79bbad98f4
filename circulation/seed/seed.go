package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/desk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

const day = 24 * time.Hour

// Store is a catalog the seeder can write to, implemented by MemoryCatalog and GormCatalog.
type Store interface {
	catalog.Catalog
	catalog.PatronDirectory
	SaveTitle(ctx context.Context, title catalog.Title) error
	SavePatron(ctx context.Context, patron catalog.Patron, email string) error
}

// Options control the size and shape of the seeded history.
type Options struct {
	Members      int
	Weeks        int
	BorrowChance float64 // per member and day
	LateChance   float64 // per loan of a late-prone member
	Now          time.Time
	Seed         uint64
}

// DefaultOptions seeds 25 members and 12 weeks of history ending now.
func DefaultOptions() Options {
	return Options{
		Members:      25,
		Weeks:        12,
		BorrowChance: 0.08,
		LateChance:   0.6,
		Now:          time.Now().UTC(),
		Seed:         42,
	}
}

// Result summarizes what was seeded.
type Result struct {
	Titles    int
	Members   []catalog.Patron
	Librarian catalog.Patron
	Borrowed  int
	Returned  int
	Active    int
}

type sampleTitle struct {
	name   string
	author string
	isbn   string
	genre  string
	tags   []string
	year   int
	copies int
}

var sampleTitles = []sampleTitle{
	{"Learning Domain-Driven Design", "Vlad Khononov", "978-1-098-10013-1", "Software", []string{"ddd", "architecture"}, 2021, 2},
	{"Domain-Driven Design", "Eric Evans", "978-0-321-12521-7", "Software", []string{"ddd", "modeling"}, 2003, 2},
	{"Microservices Patterns", "Chris Richardson", "978-1-617-29428-6", "Software", []string{"architecture", "distributed systems"}, 2018, 1},
	{"Building Microservices", "Sam Newman", "978-1-449-37320-0", "Software", []string{"architecture", "distributed systems"}, 2015, 2},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", "978-1-449-37332-0", "Software", []string{"databases", "distributed systems"}, 2017, 3},
	{"Kindred", "Octavia E. Butler", "978-0-807-08305-3", "Science Fiction", []string{"time travel", "classic"}, 1979, 2},
	{"Parable of the Sower", "Octavia E. Butler", "978-1-538-73217-8", "Science Fiction", []string{"dystopia"}, 1993, 1},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "978-0-441-47812-5", "Science Fiction", []string{"classic", "anthropology"}, 1969, 2},
	{"The Dispossessed", "Ursula K. Le Guin", "978-0-061-05488-4", "Science Fiction", []string{"utopia", "anthropology"}, 1974, 1},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "978-0-547-77374-3", "Fantasy", []string{"magic", "classic"}, 1968, 2},
	{"The Fifth Season", "N. K. Jemisin", "978-0-316-22929-6", "Fantasy", []string{"magic", "dystopia"}, 2015, 2},
	{"Piranesi", "Susanna Clarke", "978-1-635-57563-0", "Fantasy", []string{"magic", "mystery"}, 2020, 1},
	{"The Murder of Roger Ackroyd", "Agatha Christie", "978-0-062-07356-3", "Mystery", []string{"detective", "classic"}, 1926, 2},
	{"The Big Sleep", "Raymond Chandler", "978-0-394-75828-0", "Mystery", []string{"detective", "noir"}, 1939, 1},
	{"The Name of the Rose", "Umberto Eco", "978-0-156-00131-2", "Mystery", []string{"detective", "history"}, 1980, 1},
	{"SPQR", "Mary Beard", "978-1-631-49222-8", "History", []string{"rome", "history"}, 2015, 2},
}

var loanPeriods = []int{7, 14, 14, 21}

type member struct {
	patron         catalog.Patron
	favorite       string
	lateProne      bool
	plannedReturns map[core.LoanIDString]time.Time // per active loan
}

// Run writes the sample catalog to store and replays Weeks of loan history into eventStore.
func Run(ctx context.Context, eventStore shell.EventStore, store Store, opts Options) (Result, error) {
	if opts.Members <= 0 || opts.Weeks <= 0 {
		return Result{}, errors.New("seed: members and weeks must be positive")
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	result := Result{}

	titles, err := seedTitles(ctx, store)
	if err != nil {
		return Result{}, err
	}
	result.Titles = len(titles)

	members, librarian, err := seedPatrons(ctx, store, opts, rng)
	if err != nil {
		return Result{}, err
	}
	result.Librarian = librarian

	now := opts.Now.Add(-time.Duration(opts.Weeks) * 7 * day)

	d, err := desk.NewDesk(eventStore, store, store, desk.WithClock(func() time.Time { return now }), desk.WithAnalyticsMaxAge(0))
	if err != nil {
		return Result{}, err
	}

	for ; now.Before(opts.Now); now = now.Add(day) {
		for _, m := range members {
			returned, err := returnDue(ctx, d, m, now)
			if err != nil {
				return Result{}, err
			}
			result.Returned += returned

			if rng.Float64() >= opts.BorrowChance {
				continue
			}

			borrowed, err := borrow(ctx, d, m, pickTitle(titles, m.favorite, rng), opts, rng, now)
			if err != nil {
				return Result{}, err
			}

			if borrowed {
				result.Borrowed++
			}
		}
	}

	for _, m := range members {
		result.Members = append(result.Members, m.patron)
		result.Active += len(m.plannedReturns)
	}

	return result, nil
}

func seedTitles(ctx context.Context, store Store) ([]catalog.Title, error) {
	titles := make([]catalog.Title, 0, len(sampleTitles))

	for _, sample := range sampleTitles {
		title := catalog.Title{
			ID:              uuid.Must(uuid.NewV7()).String(),
			Name:            sample.name,
			Author:          sample.author,
			ISBN:            sample.isbn,
			Genre:           sample.genre,
			Tags:            sample.tags,
			PublicationYear: sample.year,
			TotalCopies:     sample.copies,
		}

		if err := store.SaveTitle(ctx, title); err != nil {
			return nil, fmt.Errorf("seeding title %q: %w", title.Name, err)
		}

		titles = append(titles, title)
	}

	return titles, nil
}

func seedPatrons(ctx context.Context, store Store, opts Options, rng *rand.Rand) ([]*member, catalog.Patron, error) {
	librarian := catalog.Patron{ID: uuid.Must(uuid.NewV7()), Name: "Head Librarian", Role: catalog.RoleLibrarian}
	if err := store.SavePatron(ctx, librarian, "librarian@library.example"); err != nil {
		return nil, catalog.Patron{}, fmt.Errorf("seeding librarian: %w", err)
	}

	members := make([]*member, 0, opts.Members)
	for i := range opts.Members {
		m := &member{
			patron:         catalog.Patron{ID: uuid.Must(uuid.NewV7()), Name: fmt.Sprintf("Patron %03d", i+1), Role: catalog.RoleMember},
			favorite:       sampleTitles[rng.IntN(len(sampleTitles))].genre,
			lateProne:      rng.IntN(4) == 0,
			plannedReturns: make(map[core.LoanIDString]time.Time),
		}

		if err := store.SavePatron(ctx, m.patron, fmt.Sprintf("patron%03d@library.example", i+1)); err != nil {
			return nil, catalog.Patron{}, fmt.Errorf("seeding %s: %w", m.patron.Name, err)
		}

		members = append(members, m)
	}

	return members, librarian, nil
}

// pickTitle prefers the favorite genre seven times out of ten.
func pickTitle(titles []catalog.Title, favorite string, rng *rand.Rand) catalog.Title {
	if rng.IntN(10) < 7 {
		preferred := make([]catalog.Title, 0)
		for _, title := range titles {
			if title.Genre == favorite {
				preferred = append(preferred, title)
			}
		}

		if len(preferred) > 0 {
			return preferred[rng.IntN(len(preferred))]
		}
	}

	return titles[rng.IntN(len(titles))]
}

func borrow(
	ctx context.Context,
	d *desk.Desk,
	m *member,
	title catalog.Title,
	opts Options,
	rng *rand.Rand,
	now time.Time,
) (bool, error) {

	period := loanPeriods[rng.IntN(len(loanPeriods))]

	receipt, err := d.Borrow(ctx, m.patron, title.ID, period)
	switch {
	case errors.Is(err, core.ErrOutOfStock), errors.Is(err, core.ErrAlreadyBorrowed):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("seeding loan of %q: %w", title.Name, err)
	}

	returnAt := now.Add(time.Duration(1+rng.IntN(period)) * day)
	if m.lateProne && rng.Float64() < opts.LateChance {
		returnAt = receipt.DueAt.Add(time.Duration(1+rng.IntN(6)) * day)
	}

	m.plannedReturns[receipt.LoanID] = returnAt

	return true, nil
}

func returnDue(ctx context.Context, d *desk.Desk, m *member, now time.Time) (int, error) {
	returned := 0

	for loanID, returnAt := range m.plannedReturns {
		if returnAt.After(now) {
			continue
		}

		if _, err := d.Return(ctx, m.patron, loanID); err != nil {
			return returned, fmt.Errorf("seeding return of loan %s: %w", loanID, err)
		}

		delete(m.plannedReturns, loanID)
		returned++
	}

	return returned, nil
}
