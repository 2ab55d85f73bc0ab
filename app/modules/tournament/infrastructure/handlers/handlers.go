// Package tournamenthandlers exposes the tournament service over HTTP.
package tournamenthandlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tournamentqueue "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/queue"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

// DrawQueue schedules background draw generation.
type DrawQueue interface {
	EnqueueDraw(ctx context.Context, job tournamentqueue.GenerateDrawJob) (int64, error)
	ListDrawJobs(ctx context.Context, roundID string) ([]tournamentqueue.JobInfo, error)
}

// TournamentHandlers serves the tournament API.
type TournamentHandlers struct {
	service tournamentservice.Service
	queue   DrawQueue
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewTournamentHandlers builds the handlers. queue may be nil, in which
// case asynchronous draw requests are rejected.
func NewTournamentHandlers(service tournamentservice.Service, queue DrawQueue, logger *slog.Logger, tracer trace.Tracer) *TournamentHandlers {
	return &TournamentHandlers{service: service, queue: queue, logger: logger, tracer: tracer}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// statusOf maps an error kind to an HTTP status.
func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindInvalidState, apperr.KindAlreadyInProgress, apperr.KindTicketExpired:
		return http.StatusConflict
	case apperr.KindInvalidTeamCount, apperr.KindInvalidConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError renders err. Internal errors are logged and their details
// withheld.
func (h *TournamentHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		h.logger.ErrorContext(r.Context(), "Request failed",
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: apperr.KindInternal.String()})
		return
	}
	writeJSON(w, statusOf(ae.Kind), errorBody{Error: ae.Error(), Kind: ae.Kind.String(), Field: ae.Field})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.InvalidInput("body", "malformed request body: %v", err)
	}
	return nil
}

// roundInScope checks the route's round belongs to the route's tournament.
// A round of another tournament is reported as not found.
func (h *TournamentHandlers) roundInScope(ctx context.Context, tournamentID, roundID string) error {
	round, err := h.service.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.TournamentID != tournamentID {
		return apperr.NotFound("round %s not found", roundID)
	}
	return nil
}

func (h *TournamentHandlers) debateInScope(ctx context.Context, tournamentID, debateID string) error {
	tid, err := h.service.DebateTournament(ctx, debateID)
	if err != nil {
		return err
	}
	if tid != tournamentID {
		return apperr.NotFound("debate %s not found", debateID)
	}
	return nil
}

// roundHandler resolves {tournamentID} and {roundID}, checks scope and
// calls fn.
func (h *TournamentHandlers) roundHandler(op string, fn func(w http.ResponseWriter, r *http.Request, roundID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "http."+op)
		defer span.End()
		r = r.WithContext(ctx)

		tid, roundID := chi.URLParam(r, "tournamentID"), chi.URLParam(r, "roundID")
		if err := h.roundInScope(ctx, tid, roundID); err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := fn(w, r, roundID); err != nil {
			h.writeError(w, r, err)
		}
	}
}

func (h *TournamentHandlers) tournamentHandler(op string, fn func(w http.ResponseWriter, r *http.Request, tournamentID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "http."+op)
		defer span.End()
		r = r.WithContext(ctx)
		if err := fn(w, r, chi.URLParam(r, "tournamentID")); err != nil {
			h.writeError(w, r, err)
		}
	}
}

func (h *TournamentHandlers) debateHandler(op string, fn func(w http.ResponseWriter, r *http.Request, debateID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "http."+op)
		defer span.End()
		r = r.WithContext(ctx)

		tid, debateID := chi.URLParam(r, "tournamentID"), chi.URLParam(r, "debateID")
		if err := h.debateInScope(ctx, tid, debateID); err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := fn(w, r, debateID); err != nil {
			h.writeError(w, r, err)
		}
	}
}

// create decodes a request body, stamps the route tournament on it and
// writes the created entity.
func create[Req any, Res any](stamp func(*Req, string), call func(context.Context, Req) (Res, error)) func(http.ResponseWriter, *http.Request, string) error {
	return func(w http.ResponseWriter, r *http.Request, tournamentID string) error {
		var req Req
		if err := decode(r, &req); err != nil {
			return err
		}
		stamp(&req, tournamentID)
		res, err := call(r.Context(), req)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusCreated, res)
		return nil
	}
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandlers) errNoQueue() error {
	return apperr.InvalidConfiguration("background draw generation is not enabled")
}
