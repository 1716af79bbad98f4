// Package returnloan implements the Return use case: a borrowed copy comes back and the
// fine for late days is fixed.
//
// The loan is located through its LoanID, the decision then runs on the loan stream of the
// loan's title, the same consistency boundary borrowtitle uses. A concurrent borrow of the same
// title therefore makes one of the two retry, never both succeed on a stale copy count.
package returnloan
