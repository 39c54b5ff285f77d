// Package middleware provides the HTTP middleware stack for the MicroArena
// API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: one structured slog line per request
//   - Recovery: converts panics into a problem+json 500
//   - CORS: origin allow-list and preflight handling
//   - Compress: gzip for clients that accept it
//   - Identity / RequireIdentity: caller identification via X-User-ID
//   - RateLimit: token bucket per caller
//   - Idempotency: replays responses for repeated Idempotency-Key requests
//
// Middleware compose with Chain, outermost first:
//
//	h := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger(logger),
//	    middleware.Recovery(logger),
//	    middleware.Identity,
//	)
//
// # Context Values
//
//   - GetUserID(ctx): the calling user, empty when anonymous
//   - GetRequestID(ctx): the request identifier
package middleware
