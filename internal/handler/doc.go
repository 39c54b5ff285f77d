// Package handler provides the HTTP adapter for the MicroArena engine.
//
// Handlers translate requests into service calls and carry no business
// rules. Each domain has its own handler struct with a RegisterRoutes
// method; NewRouter wires them all onto one ServeMux.
//
// # Response Format
//
//   - WriteData: single resource wrapped in {"data": ...}
//   - WriteCollection: list wrapped in {"data": [...], "count": n}
//   - WriteError: RFC 9457 Problem Details
//
// Service errors go through MapServiceError, which maps error kinds to
// statuses (NotFound 404, Conflict 409, Forbidden 403, InvalidState 409,
// Validation 422, anything else 500).
//
// # Identity
//
// Callers are identified by the X-User-ID header (see middleware.Identity).
// Mutating routes are wrapped in middleware.RequireIdentity.
package handler
