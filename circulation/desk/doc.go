// Package desk is the circulation desk: the single entry point the transport layer calls.
//
// A Desk composes the command and query handlers of the ledger and the analytics, checks the role
// of the resolved caller and bounds every call by a request timeout. Librarian-only operations
// fail with core.ErrForbidden for members.
//
// Demand forecast and overdue risk are served from a cache that is refreshed lazily once it is older
// than the configured max age, or ahead of time by a Refresher running in the background.
package desk
