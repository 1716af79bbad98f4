package recommend

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

type featureKind int

const (
	kindGenre featureKind = iota
	kindAuthor
	kindTag
)

type feature struct {
	kind  featureKind
	value string // lower-cased for matching
	label string // as written in the catalog
}

func (f feature) key() string {
	return fmt.Sprintf("%d:%s", f.kind, f.value)
}

// featuresOf returns the distinct genre, author and tag features of a title.
func featuresOf(title catalog.Title) []feature {
	features := make([]feature, 0, len(title.Tags)+2)
	seen := make(map[string]bool)

	add := func(kind featureKind, label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}

		f := feature{kind: kind, value: strings.ToLower(label), label: label}
		if seen[f.key()] {
			return
		}

		seen[f.key()] = true
		features = append(features, f)
	}

	add(kindGenre, title.Genre)
	add(kindAuthor, title.Author)
	for _, tag := range title.Tags {
		add(kindTag, tag)
	}

	return features
}

// profile holds the normalised weight of every feature and the loans that carried it.
type profile struct {
	weights map[string]float64 // in (0,1], the strongest feature has 1
	loans   map[string][]int   // indexes into the history
	keys    []string           // sorted keys of weights, sums follow this order
}

func buildProfile(
	history []core.Loan,
	titles map[core.TitleIDString]catalog.Title,
	now time.Time,
	halfLifeDays float64,
) profile {

	p := profile{
		weights: make(map[string]float64),
		loans:   make(map[string][]int),
	}

	for i, loan := range history {
		title, ok := titles[loan.TitleID]
		if !ok {
			continue
		}

		w := decay(loan.BorrowedAt, now, halfLifeDays)
		for _, f := range featuresOf(title) {
			p.weights[f.key()] += w
			p.loans[f.key()] = append(p.loans[f.key()], i)
		}
	}

	maxWeight := 0.0
	for _, w := range p.weights {
		maxWeight = max(maxWeight, w)
	}

	if maxWeight <= 0 {
		return profile{weights: map[string]float64{}, loans: map[string][]int{}}
	}

	for key := range p.weights {
		p.weights[key] /= maxWeight
	}

	p.keys = slices.Sorted(maps.Keys(p.weights))

	return p
}

// similarity is the weighted Jaccard index between the title (every feature weighs 1) and the profile:
// sum of min over sum of max, taken over the union of both feature sets.
func (p profile) similarity(features []feature) (float64, []feature) {
	intersection := 0.0
	union := 0.0
	matched := make([]feature, 0)
	inTitle := make(map[string]bool, len(features))

	for _, f := range features {
		inTitle[f.key()] = true
		union++ // max(1, w) with w <= 1

		if w, ok := p.weights[f.key()]; ok {
			intersection += w
			matched = append(matched, f)
		}
	}

	for _, key := range p.keys {
		if !inTitle[key] {
			union += p.weights[key]
		}
	}

	if union == 0 {
		return 0, nil
	}

	return intersection / union, matched
}

// reason names the kind of attribute with the largest matched weight.
// Ties prefer genre over author over tags.
func (p profile) reason(matched []feature) string {
	var strongest featureKind
	best := -1.0

	for _, kind := range []featureKind{kindGenre, kindAuthor, kindTag} {
		sum := 0.0
		for _, f := range matched {
			if f.kind == kind {
				sum += p.weights[f.key()]
			}
		}

		if sum > best {
			best, strongest = sum, kind
		}
	}

	loans := make([]int, 0)
	labels := make([]string, 0)
	for _, f := range matched {
		if f.kind != strongest {
			continue
		}

		loans = append(loans, p.loans[f.key()]...)
		labels = append(labels, f.label)
	}

	slices.Sort(loans)
	count := len(slices.Compact(loans))

	switch strongest {
	case kindGenre:
		return "same genre as " + reads(count)
	case kindAuthor:
		return "same author as " + reads(count)
	default:
		slices.Sort(labels)
		if len(labels) == 1 {
			return fmt.Sprintf("shares tag %s with %s", labels[0], reads(count))
		}

		return fmt.Sprintf("shares tags %s with %s", strings.Join(labels, ", "), reads(count))
	}
}
