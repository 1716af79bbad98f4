// Package httpapi exposes the circulation desk over HTTP with fiber.
//
// Every /api route requires a bearer JWT signed with HS256 whose "sub" claim is the patron UUID
// and whose "role" claim is member or librarian. Errors of the circulation taxonomy map to status
// codes: not found 404, out of stock, already returned and already borrowed 409, forbidden 403,
// conflict 503 with Retry-After, invalid input 400, missing or invalid credential 401.
//
// Money is rendered as a decimal string with two places, timestamps as RFC 3339 in UTC.
package httpapi
