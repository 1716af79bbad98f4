// Package recommend ranks catalog titles for a patron by their similarity to the patron's reading profile.
//
// The profile is built from the genre, author and tags of every title the patron borrowed,
// weighted by how recently it was borrowed. Recommend is a pure function of its inputs:
// the same history, catalog and now always produce the same ordered output.
package recommend
