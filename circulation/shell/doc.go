// Package shell contains the infrastructure glue shared by all circulation features:
// mapping between domain events and storable events, the optimistic retry loop,
// handler contracts and the observability helpers used by the observable wrappers.
//
// In Hexagonal Architecture terminology, this would be part of the 'adapters' layer.
package shell
