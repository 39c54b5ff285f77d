package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/microarena/api/internal/middleware"
	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// StatsSource reports entity counts.
type StatsSource interface {
	Stats() model.StoreStats
}

// Pinger checks an external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds everything the HTTP layer calls into.
type Services struct {
	Clans       *service.ClanService
	Integrity   *service.IntegrityService
	Invites     *service.InviteService
	Beef        *service.BeefService
	Arena       *service.ArenaService
	Ranking     *service.RankingService
	Tournaments *service.TournamentService
	// Events enables GET /v1/events when set.
	Events *service.EventHub
	Stats  StatsSource
	// Archive is pinged by /health when set.
	Archive Pinger
}

// NewRouter registers every route on a new ServeMux.
func NewRouter(svc Services, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}
	b := base{logger: logger}

	mux := http.NewServeMux()
	NewSystemHandler(b, svc.Stats, svc.Archive).RegisterRoutes(mux)
	NewUserHandler(b, svc.Clans, svc.Ranking, svc.Integrity).RegisterRoutes(mux)
	NewClanHandler(b, svc.Clans, svc.Ranking, svc.Invites).RegisterRoutes(mux)
	NewInviteHandler(b, svc.Invites).RegisterRoutes(mux)
	NewIntegrityHandler(b, svc.Integrity).RegisterRoutes(mux)
	NewBeefHandler(b, svc.Beef).RegisterRoutes(mux)
	NewArenaHandler(b, svc.Arena).RegisterRoutes(mux)
	NewLadderHandler(b, svc.Ranking).RegisterRoutes(mux)
	NewTournamentHandler(b, svc.Tournaments).RegisterRoutes(mux)
	NewEventsHandler(b, svc.Events, svc.Clans).RegisterRoutes(mux)
	return mux
}

// base carries what every handler shares.
type base struct {
	logger *slog.Logger
}

// fail writes the mapped error. Internal errors are logged at Error and
// rule rejections at Debug.
func (b base) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	pd := MapServiceErrorWithContext(err, op)
	if pd.Status >= 500 {
		b.logger.Error("request failed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	} else {
		b.logger.Debug("request rejected",
			slog.String("op", op),
			slog.Int("status", pd.Status),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, pd)
}

// authed wraps a handler in RequireIdentity.
func authed(f http.HandlerFunc) http.Handler {
	return middleware.RequireIdentity(f)
}

func actor(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
