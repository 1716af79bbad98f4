// Package activeloansbypatron implements the Active Loans By Patron query use case.
//
// It lists the loans a patron currently holds, each with its status derived at query time:
// overdue once now is past the due time, borrowed otherwise. Returned loans are never listed.
//
// The query reads with strong consistency, so a patron sees a loan right after borrowing it.
package activeloansbypatron
