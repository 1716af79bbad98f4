// Package borrowtitle implements the Borrow use case: a patron takes one copy of a title.
//
// The handler looks up the title's total copies in the catalog, then runs
// Query → Decide → Append on the loan stream of that title. The append only succeeds if no other
// borrow or return of the same title was appended in between, otherwise the whole cycle is
// retried. Borrows of different titles never conflict.
//
// Rules: the loan period must be within the LoanPolicy, a patron holds at most one active loan
// per title, and the number of active loans never exceeds the total copies.
package borrowtitle
