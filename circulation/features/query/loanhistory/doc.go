// Package loanhistory implements the Loan History query use case.
//
// It lists every loan of one patron, returned ones included, or every loan in the ledger when
// no patron is given. Each entry carries its derived status and, once returned, the fine charged.
package loanhistory
