package tournamenthandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	"github.com/abacus-tab/abacus/pkg/jwt"
)

// Mount registers the tournament API under /api/tournaments. Every route
// requires a bearer token; limiter may be nil.
func (h *TournamentHandlers) Mount(r chi.Router, tokens jwt.Service, limiter *IPRateLimiter) {
	r.Route("/api/tournaments", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter))
		}
		r.Use(AuthMiddleware(tokens))

		r.With(requireSuperuser).Post("/", h.HandleCreateTournament)

		r.Route("/{tournamentID}", func(r chi.Router) {
			participants := r.With(Require(jwt.PermManageParticipants))
			participants.Post("/rounds", h.tournamentHandler("CreateRound", create(
				func(req *tournamentservice.CreateRoundRequest, tid string) { req.TournamentID = tid }, h.service.CreateRound)))
			participants.Post("/institutions", h.tournamentHandler("CreateInstitution", create(
				func(req *tournamentservice.CreateInstitutionRequest, tid string) { req.TournamentID = tid }, h.service.CreateInstitution)))
			participants.Post("/teams", h.tournamentHandler("RegisterTeam", create(
				func(req *tournamentservice.RegisterTeamRequest, tid string) { req.TournamentID = tid }, h.service.RegisterTeam)))
			participants.Post("/judges", h.tournamentHandler("RegisterJudge", create(
				func(req *tournamentservice.RegisterJudgeRequest, tid string) { req.TournamentID = tid }, h.service.RegisterJudge)))
			participants.Post("/conflicts", h.tournamentHandler("AddConflict", create(
				func(req *tournamentservice.AddConflictRequest, tid string) { req.TournamentID = tid }, h.service.AddConflict)))

			rooms := r.With(Require(jwt.PermManageRooms))
			rooms.Post("/rooms", h.tournamentHandler("CreateRoom", create(
				func(req *tournamentservice.CreateRoomRequest, tid string) { req.TournamentID = tid }, h.service.CreateRoom)))
			rooms.Post("/room-categories", h.tournamentHandler("CreateRoomCategory", create(
				func(req *tournamentservice.CreateRoomCategoryRequest, tid string) { req.TournamentID = tid }, h.service.CreateRoomCategory)))
			rooms.Put("/room-preferences", h.tournamentHandler("SetRoomPreference", h.handleRoomPreference))
			rooms.Post("/rooms/move", h.tournamentHandler("MoveRoom", h.handleMoveRoom))

			r.With(Require(jwt.PermViewStandings)).Get("/standings", h.tournamentHandler("RecomputeStandings", h.handleStandings))
			results := r.With(Require(jwt.PermReleaseResults))
			results.Get("/tab.xlsx", h.tournamentHandler("ExportTab", h.handleExportTab))
			results.Get("/charts/points.png", h.tournamentHandler("PointsChart", h.handlePointsChart))

			r.Route("/rounds/{roundID}", func(r chi.Router) {
				view := r.With(Require(jwt.PermViewDraw))
				view.Get("/", h.roundHandler("GetRound", h.handleGetRound))
				view.Get("/draw", h.roundHandler("GetDraw", h.handleGetDraw))

				draw := r.With(Require(jwt.PermGenerateDraw))
				draw.Post("/draw", h.roundHandler("GenerateDraw", h.handleGenerateDraw))
				draw.Get("/draw/jobs", h.roundHandler("ListDrawJobs", h.handleDrawJobs))
				draw.Post("/draw/cancel", h.roundHandler("CancelDraw", handleTransition(h.service.CancelDraw)))
				draw.Post("/draw/release", h.roundHandler("ReleaseDraw", h.handleReleaseDraw))
				draw.Post("/start", h.roundHandler("StartRound", handleTransition(h.service.StartRound)))

				r.With(Require(jwt.PermManageBallots)).Post("/complete", h.roundHandler("CompleteRound", handleTransition(h.service.CompleteRound)))
				r.With(Require(jwt.PermManageRooms)).Post("/rooms/allocate", h.roundHandler("AllocateRooms", h.handleAllocateRooms))

				setup := r.With(Require(jwt.PermManageParticipants))
				setup.Post("/motions", h.roundHandler("CreateMotion", h.handleCreateMotion))
				setup.Put("/availability/teams", h.roundHandler("SetTeamAvailability", handleAvailability(h.service.SetTeamAvailability)))
				setup.Put("/availability/judges", h.roundHandler("SetJudgeAvailability", handleAvailability(h.service.SetJudgeAvailability)))
			})

			r.Route("/debates/{debateID}", func(r chi.Router) {
				r.Use(Require(jwt.PermManageBallots))
				r.Post("/ballots", h.debateHandler("SubmitBallot", h.handleSubmitBallot))
				r.Post("/ballots/confirm", h.debateHandler("ConfirmBallot", h.handleConfirmBallot))
			})
		})
	})
}

func requireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || jwt.Role(claims.Role) != jwt.RoleSuperuser {
			writeStatus(w, http.StatusForbidden, "only superusers may create tournaments")
			return
		}
		next.ServeHTTP(w, r)
	})
}
