// Package core contains the circulation domain: the loan events, the loan projection,
// the fine and loan period policies and the error taxonomy.
//
// Nothing in here does I/O. Command handlers load the events of a title, turn them into
// core.DomainEvents and pass them to pure Decide functions that return a DecisionResult.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
