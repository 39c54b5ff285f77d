// Package config loads and validates MicroArena API configuration.
//
// Values come from environment variables, parsed into tagged structs by
// caarlos0/env. cmd/server loads an optional .env file first.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP port, timeouts and CORS origins
//   - LogConfig: slog level and handler format
//   - ArchiveConfig: SurrealDB archive connection and ladder snapshot interval
//   - RankingConfig: Elo initial rating, K-factor, floor and the arena Elo flag
//   - InviteConfig: clan invite lifetime
//   - MatchConfig: ranked integrity gate
//   - RateLimitConfig, IdempotencyConfig: HTTP middleware settings
package config
