package tournamenthandlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tabexport "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/export"
	tournamentqueue "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/queue"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

func tournamentIDOf(r *http.Request) string { return chi.URLParam(r, "tournamentID") }

// --- Setup ---

func (h *TournamentHandlers) HandleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var req tournamentservice.CreateTournamentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	tour, err := h.service.CreateTournament(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tour)
}

func (h *TournamentHandlers) handleRoomPreference(w http.ResponseWriter, r *http.Request, tournamentID string) error {
	var req tournamentservice.RoomPreferenceRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	req.TournamentID = tournamentID
	if err := h.service.SetRoomPreference(r.Context(), req); err != nil {
		return err
	}
	noContent(w)
	return nil
}

func handleAvailability(set func(context.Context, tournamentservice.AvailabilityRequest) error) func(http.ResponseWriter, *http.Request, string) error {
	return func(w http.ResponseWriter, r *http.Request, roundID string) error {
		var req tournamentservice.AvailabilityRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		req.RoundID = roundID
		if err := set(r.Context(), req); err != nil {
			return err
		}
		noContent(w)
		return nil
	}
}

func (h *TournamentHandlers) handleCreateMotion(w http.ResponseWriter, r *http.Request, roundID string) error {
	var req tournamentservice.CreateMotionRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	req.RoundID = roundID
	m, err := h.service.CreateMotion(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, m)
	return nil
}

// --- Round lifecycle ---

type generateDrawBody struct {
	Algorithm string  `json:"algorithm,omitempty"`
	Force     bool    `json:"force"`
	Seed      *uint64 `json:"seed,omitempty"`
}

// handleGenerateDraw runs the draw inline, or queues it when the request
// carries ?async=true.
func (h *TournamentHandlers) handleGenerateDraw(w http.ResponseWriter, r *http.Request, roundID string) error {
	var body generateDrawBody
	if r.ContentLength != 0 {
		if err := decode(r, &body); err != nil {
			return err
		}
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if h.queue == nil {
			return h.errNoQueue()
		}
		id, err := h.queue.EnqueueDraw(r.Context(), tournamentqueue.GenerateDrawJob{
			TournamentID: tournamentIDOf(r),
			RoundID:      roundID,
			Algorithm:    body.Algorithm,
			Force:        body.Force,
			Seed:         body.Seed,
		})
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"job_id": id, "round_id": roundID})
		return nil
	}

	repr, err := h.service.GenerateDraw(r.Context(), tournamentservice.GenerateDrawRequest{
		RoundID:   roundID,
		Algorithm: body.Algorithm,
		Force:     body.Force,
		Seed:      body.Seed,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, repr)
	return nil
}

func (h *TournamentHandlers) handleDrawJobs(w http.ResponseWriter, r *http.Request, roundID string) error {
	if h.queue == nil {
		return h.errNoQueue()
	}
	jobs, err := h.queue.ListDrawJobs(r.Context(), roundID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, jobs)
	return nil
}

func (h *TournamentHandlers) handleGetDraw(w http.ResponseWriter, r *http.Request, roundID string) error {
	repr, err := h.service.GetDraw(r.Context(), roundID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, repr)
	return nil
}

func (h *TournamentHandlers) handleGetRound(w http.ResponseWriter, r *http.Request, roundID string) error {
	round, err := h.service.GetRound(r.Context(), roundID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, round)
	return nil
}

func (h *TournamentHandlers) handleReleaseDraw(w http.ResponseWriter, r *http.Request, roundID string) error {
	repr, err := h.service.ReleaseDraw(r.Context(), roundID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, repr)
	return nil
}

func (h *TournamentHandlers) handleAllocateRooms(w http.ResponseWriter, r *http.Request, roundID string) error {
	repr, err := h.service.AllocateRooms(r.Context(), roundID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, repr)
	return nil
}

// handleTransition adapts a round operation without a response body.
func handleTransition(op func(context.Context, string) error) func(http.ResponseWriter, *http.Request, string) error {
	return func(w http.ResponseWriter, r *http.Request, roundID string) error {
		if err := op(r.Context(), roundID); err != nil {
			return err
		}
		noContent(w)
		return nil
	}
}

// --- Rooms ---

func (h *TournamentHandlers) handleMoveRoom(w http.ResponseWriter, r *http.Request, tournamentID string) error {
	var req tournamentservice.MoveRoomRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	for _, roundID := range req.RoundIDs {
		if err := h.roundInScope(r.Context(), tournamentID, roundID); err != nil {
			return err
		}
	}
	if err := h.service.MoveRoom(r.Context(), req); err != nil {
		return err
	}
	noContent(w)
	return nil
}

// --- Ballots ---

func (h *TournamentHandlers) handleSubmitBallot(w http.ResponseWriter, r *http.Request, debateID string) error {
	var req tournamentservice.SubmitBallotRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	req.DebateID = debateID
	b, err := h.service.SubmitBallot(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, b)
	return nil
}

func (h *TournamentHandlers) handleConfirmBallot(w http.ResponseWriter, r *http.Request, debateID string) error {
	res, err := h.service.ConfirmBallot(r.Context(), debateID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// --- Standings ---

func (h *TournamentHandlers) handleStandings(w http.ResponseWriter, r *http.Request, tournamentID string) error {
	report, err := h.service.RecomputeStandings(r.Context(), tournamentID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, report)
	return nil
}

func (h *TournamentHandlers) handleExportTab(w http.ResponseWriter, r *http.Request, tournamentID string) error {
	tab, err := h.service.Tab(r.Context(), tournamentID)
	if err != nil {
		return err
	}
	f, err := tabexport.BuildWorkbook(tab)
	if err != nil {
		return err
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tab.Tournament.Slug+"-tab.xlsx"))
	// Headers are committed from here on; a failed write can only be logged.
	if err := f.Write(w); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to stream tab workbook", attr.Error(err))
	}
	return nil
}

func (h *TournamentHandlers) handlePointsChart(w http.ResponseWriter, r *http.Request, tournamentID string) error {
	tab, err := h.service.Tab(r.Context(), tournamentID)
	if err != nil {
		return err
	}
	if tab.Standings.Teams == nil || len(tab.Standings.Teams.Entries) == 0 {
		return apperr.InvalidState("tournament %s has no team standings yet", tournamentID)
	}
	png, err := tabexport.RenderPointsChart(tab.Tournament.Name, tab.Standings.Teams)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
	return nil
}
