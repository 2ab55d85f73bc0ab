package tournamentservice

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/eventbus"
	drawalg "github.com/abacus-tab/abacus/app/modules/tournament/domain/draw"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
	"github.com/abacus-tab/abacus/pkg/results"
)

// drawClaim is a minted ticket and the state it was minted against.
type drawClaim struct {
	Ticket     *tournamentdb.Ticket
	Round      *tournamentdb.Round
	Tournament *tournamentdb.Tournament
	Algorithm  drawalg.Algorithm
	Seed       uint64
}

// classify turns a domain error into a failure result and passes
// infrastructure errors through.
func classify[S any](err error) (results.OperationResult[S, error], error) {
	if apperr.IsDomain(err) {
		return fail[S](err)
	}
	return results.OperationResult[S, error]{}, err
}

// seedFromTicket derives a draw seed from the random half of a ticket id.
func seedFromTicket(id string) uint64 {
	u, err := uuid.Parse(id)
	if err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(u[8:])
}

// GenerateDraw runs the ticket protocol: claim the round, compute the draw
// outside any transaction, and commit only if the ticket is still the
// newest live one.
func (s *TournamentService) GenerateDraw(ctx context.Context, req GenerateDrawRequest) (*tabtypes.DrawRepr, error) {
	result, err := withTelemetry(s, ctx, "GenerateDraw", req.RoundID, func(ctx context.Context) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
		return s.generateDraw(ctx, req)
	})
	return unwrap(result, err)
}

func (s *TournamentService) generateDraw(ctx context.Context, req GenerateDrawRequest) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
	type R = *tabtypes.DrawRepr

	acquired, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*drawClaim, error], error) {
		return s.acquireTicketLogic(ctx, db, req)
	})
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	if acquired.IsFailure() {
		return fail[R](*acquired.Failure)
	}
	claim := *acquired.Success
	s.publish(ctx, eventbus.DrawUpdated(claim.Tournament.ID, claim.Round.ID))

	result, err := s.produceDraw(ctx, claim)
	switch {
	case err != nil:
		s.abandonTicket(ctx, claim, err)
	case result.IsFailure():
		s.abandonTicket(ctx, claim, *result.Failure)
	default:
		s.publish(ctx, eventbus.DrawUpdated(claim.Tournament.ID, claim.Round.ID))
	}
	return result, err
}

func (s *TournamentService) acquireTicketLogic(ctx context.Context, db bun.IDB, req GenerateDrawRequest) (results.OperationResult[*drawClaim, error], error) {
	type R = *drawClaim

	round, err := s.repo.GetRound(ctx, db, req.RoundID)
	if err != nil {
		return lookupFailure[R](err, "round %s not found", req.RoundID)
	}
	tour, err := s.repo.GetTournament(ctx, db, round.TournamentID)
	if err != nil {
		return lookupFailure[R](err, "tournament %s not found", round.TournamentID)
	}

	now := s.clock()
	latest, err := s.repo.LatestTicket(ctx, db, round.ID)
	if err != nil && !errors.Is(err, tournamentdb.ErrNotFound) {
		return results.OperationResult[R, error]{}, err
	}
	if errors.Is(err, tournamentdb.ErrNotFound) {
		latest = nil
	}

	switch round.DrawStatus {
	case tabtypes.DrawStatusNone:
	case tabtypes.DrawStatusDrafted:
		if !req.Force {
			return fail[R](apperr.InvalidState("round %s already has a drafted draw; regenerate with force", round.ID))
		}
	case tabtypes.DrawStatusGenerating:
		live := latest != nil && !latest.Released && !latest.Cancelled && now.Before(latest.Deadline)
		if live && !req.Force {
			return fail[R](apperr.AlreadyInProgress("draw generation for round %s is held by %s until %s",
				round.ID, latest.Owner, latest.Deadline.Format("15:04:05")))
		}
	default:
		return fail[R](apperr.InvalidState("cannot generate a draw for round %s while it is %s", round.ID, round.DrawStatus))
	}

	name := req.Algorithm
	if name == "" {
		name, err = s.defaultAlgorithm(ctx, db, round)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
	}
	alg, err := s.algorithms(name)
	if err != nil {
		return classify[R](err)
	}
	if tour.TeamsPerSide != 1 && tour.TeamsPerSide != 2 {
		return fail[R](apperr.InvalidConfiguration("teams per side must be 1 or 2, got %d", tour.TeamsPerSide))
	}

	err = s.repo.UpdateRoundStatus(ctx, db, round.ID, []tabtypes.DrawStatus{round.DrawStatus}, tabtypes.DrawStatusGenerating, now)
	if errors.Is(err, tournamentdb.ErrNoRowsAffected) {
		return fail[R](apperr.AlreadyInProgress("round %s changed state while claiming the draw", round.ID))
	}
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	if err := s.repo.CancelTickets(ctx, db, round.ID); err != nil {
		return results.OperationResult[R, error]{}, err
	}

	seq := 1
	if latest != nil {
		seq = latest.Seq + 1
	}
	ticket := &tournamentdb.Ticket{
		ID:         newID(),
		RoundID:    round.ID,
		Seq:        seq,
		Kind:       tournamentdb.TicketKindDraw,
		Owner:      s.owner,
		AcquiredAt: now,
		Deadline:   now.Add(s.ticketTTL),
	}
	seed := seedFromTicket(ticket.ID)
	if req.Seed != nil {
		seed = *req.Seed
	}
	ticket.Seed = int64(seed)
	err = s.repo.InsertTicket(ctx, db, ticket)
	if errors.Is(err, tournamentdb.ErrDuplicate) {
		return fail[R](apperr.AlreadyInProgress("ticket %d for round %s was claimed concurrently", seq, round.ID))
	}
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}

	round.DrawStatus = tabtypes.DrawStatusGenerating
	return succeed(&drawClaim{
		Ticket:     ticket,
		Round:      round,
		Tournament: tour,
		Algorithm:  alg,
		Seed:       seed,
	})
}

// defaultAlgorithm draws the opening preliminary round at random and power
// pairs everything after it.
func (s *TournamentService) defaultAlgorithm(ctx context.Context, db bun.IDB, round *tournamentdb.Round) (string, error) {
	if round.Kind != tabtypes.RoundKindPreliminary {
		return drawalg.AlgorithmPowerPaired, nil
	}
	n, err := s.repo.CountCompletedRounds(ctx, db, round.TournamentID, tabtypes.RoundKindPreliminary, round.Seq)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return drawalg.AlgorithmRandom, nil
	}
	return drawalg.AlgorithmPowerPaired, nil
}

// produceDraw reads inputs, computes the draw with no transaction open and
// commits it under the ticket.
func (s *TournamentService) produceDraw(ctx context.Context, c *drawClaim) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
	type R = *tabtypes.DrawRepr

	loaded, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*drawPlan, error], error) {
		plan, err := s.loadDrawPlan(ctx, db, c)
		if err != nil {
			return classify[*drawPlan](err)
		}
		return succeed(plan)
	})
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	if loaded.IsFailure() {
		return fail[R](*loaded.Failure)
	}
	plan := *loaded.Success

	pairings, err := c.Algorithm.Generate(&plan.input)
	if err != nil {
		return classify[R](err)
	}
	plan.panels.Debates = pairings
	panels := drawalg.AllocatePanels(plan.panels)

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[R, error], error) {
		return s.commitDrawLogic(ctx, db, c, pairings, panels)
	})
}

// checkTicket fails with TicketExpired unless t is still the newest live
// ticket of its round.
func (s *TournamentService) checkTicket(ctx context.Context, db bun.IDB, t *tournamentdb.Ticket) error {
	current, err := s.repo.GetTicket(ctx, db, t.ID)
	if err != nil {
		return err
	}
	latest, err := s.repo.LatestTicket(ctx, db, t.RoundID)
	if err != nil {
		return err
	}
	switch {
	case current.Cancelled:
		return apperr.TicketExpired("draw ticket %d of round %s was cancelled", current.Seq, current.RoundID)
	case current.Released:
		return apperr.TicketExpired("draw ticket %d of round %s was already released", current.Seq, current.RoundID)
	case latest.Seq != current.Seq:
		return apperr.TicketExpired("draw ticket %d of round %s was superseded by ticket %d", current.Seq, current.RoundID, latest.Seq)
	case !s.clock().Before(current.Deadline):
		return apperr.TicketExpired("draw ticket %d of round %s expired", current.Seq, current.RoundID)
	}
	return nil
}

func (s *TournamentService) commitDrawLogic(
	ctx context.Context,
	db bun.IDB,
	c *drawClaim,
	pairings []drawalg.Pairing,
	panels [][]tabtypes.PanelSeat,
) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
	type R = *tabtypes.DrawRepr

	if err := s.checkTicket(ctx, db, c.Ticket); err != nil {
		return classify[R](err)
	}
	if err := s.repo.DeleteDrawForRound(ctx, db, c.Round.ID); err != nil {
		return results.OperationResult[R, error]{}, err
	}

	draw := &tournamentdb.Draw{
		ID:        newID(),
		RoundID:   c.Round.ID,
		Seed:      int64(c.Seed),
		Algorithm: c.Algorithm.Name(),
	}
	debates := make([]*tournamentdb.Debate, len(pairings))
	var teams []*tournamentdb.TeamOfDebate
	var judges []*tournamentdb.JudgeOfDebate
	for i, p := range pairings {
		debates[i] = &tournamentdb.Debate{
			ID:      newID(),
			DrawID:  draw.ID,
			RoundID: c.Round.ID,
			Index:   i,
		}
		for side := 0; side < 2; side++ {
			for seq, teamID := range p.Sides[side] {
				teams = append(teams, &tournamentdb.TeamOfDebate{
					DebateID: debates[i].ID,
					TeamID:   teamID,
					Side:     side,
					Seq:      seq,
				})
			}
		}
		if i < len(panels) {
			for _, seat := range panels[i] {
				judges = append(judges, &tournamentdb.JudgeOfDebate{
					DebateID: debates[i].ID,
					JudgeID:  seat.JudgeID,
					Role:     seat.Role,
				})
			}
		}
	}
	if err := s.repo.InsertDraw(ctx, db, draw, debates, teams, judges); err != nil {
		return results.OperationResult[R, error]{}, err
	}

	err := s.repo.UpdateRoundStatus(ctx, db, c.Round.ID,
		[]tabtypes.DrawStatus{tabtypes.DrawStatusGenerating}, tabtypes.DrawStatusDrafted, s.clock())
	if errors.Is(err, tournamentdb.ErrNoRowsAffected) {
		return fail[R](apperr.TicketExpired("round %s left the generating state before the draw committed", c.Round.ID))
	}
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}

	if err := s.assignRooms(ctx, db, c.Round.TournamentID, c.Round.ID); err != nil {
		return results.OperationResult[R, error]{}, err
	}
	if err := s.repo.ReleaseTicket(ctx, db, c.Ticket.ID, nil); err != nil {
		return results.OperationResult[R, error]{}, err
	}

	round, err := s.repo.GetRound(ctx, db, c.Round.ID)
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	repr, err := s.loadRepr(ctx, db, round)
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	return succeed(repr)
}

// abandonTicket releases a ticket whose generation failed. If the ticket
// still owns the round, the round returns to none and any partial draft is
// removed; a cancelled or superseded ticket leaves the round alone.
func (s *TournamentService) abandonTicket(ctx context.Context, c *drawClaim, cause error) {
	ctx = context.WithoutCancel(ctx)
	msg := cause.Error()

	reverted, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		current, err := s.repo.GetTicket(ctx, db, c.Ticket.ID)
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		latest, err := s.repo.LatestTicket(ctx, db, c.Round.ID)
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		if !current.Released {
			if err := s.repo.ReleaseTicket(ctx, db, current.ID, &msg); err != nil {
				return results.OperationResult[bool, error]{}, err
			}
		}
		if current.Cancelled || latest.Seq != current.Seq {
			return succeed(false)
		}
		err = s.repo.UpdateRoundStatus(ctx, db, c.Round.ID,
			[]tabtypes.DrawStatus{tabtypes.DrawStatusGenerating}, tabtypes.DrawStatusNone, s.clock())
		if errors.Is(err, tournamentdb.ErrNoRowsAffected) {
			return succeed(false)
		}
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		if err := s.repo.DeleteDrawForRound(ctx, db, c.Round.ID); err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		return succeed(true)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to release draw ticket",
			attr.RoundID(c.Round.ID),
			attr.Int("ticket_seq", c.Ticket.Seq),
			attr.Error(err),
		)
		return
	}
	s.logger.WarnContext(ctx, "Draw generation abandoned",
		attr.RoundID(c.Round.ID),
		attr.Int("ticket_seq", c.Ticket.Seq),
		attr.String("cause", msg),
	)
	if reverted.IsSuccess() && *reverted.Success {
		s.publish(ctx, eventbus.DrawUpdated(c.Tournament.ID, c.Round.ID))
	}
}

// CancelDraw returns a generating or drafted round to none. A generating
// round's live ticket is cancelled so that its in-flight result cannot
// commit.
func (s *TournamentService) CancelDraw(ctx context.Context, roundID string) error {
	round, err := execute(s, ctx, "CancelDraw", roundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Round, error], error) {
		return s.cancelDrawLogic(ctx, db, roundID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, eventbus.DrawUpdated(round.TournamentID, round.ID))
	return nil
}

func (s *TournamentService) cancelDrawLogic(ctx context.Context, db bun.IDB, roundID string) (results.OperationResult[*tournamentdb.Round, error], error) {
	type R = *tournamentdb.Round

	round, err := s.repo.GetRound(ctx, db, roundID)
	if err != nil {
		return lookupFailure[R](err, "round %s not found", roundID)
	}
	next, ok := round.DrawStatus.Next(tabtypes.TransitionCancel)
	if !ok {
		return fail[R](apperr.InvalidState("cannot cancel the draw of round %s while it is %s", roundID, round.DrawStatus))
	}
	if err := s.repo.CancelTickets(ctx, db, roundID); err != nil {
		return results.OperationResult[R, error]{}, err
	}
	err = s.repo.UpdateRoundStatus(ctx, db, roundID, []tabtypes.DrawStatus{round.DrawStatus}, next, s.clock())
	if errors.Is(err, tournamentdb.ErrNoRowsAffected) {
		return fail[R](apperr.InvalidState("round %s changed state during cancel", roundID))
	}
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	if err := s.repo.DeleteDrawForRound(ctx, db, roundID); err != nil {
		return results.OperationResult[R, error]{}, err
	}
	round.DrawStatus = next
	return succeed(round)
}

// ReleaseDraw publishes a drafted draw after checking it is complete.
func (s *TournamentService) ReleaseDraw(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error) {
	var tournamentID string
	repr, err := execute(s, ctx, "ReleaseDraw", roundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
		type R = *tabtypes.DrawRepr

		round, err := s.repo.GetRound(ctx, db, roundID)
		if err != nil {
			return lookupFailure[R](err, "round %s not found", roundID)
		}
		tournamentID = round.TournamentID
		next, ok := round.DrawStatus.Next(tabtypes.TransitionRelease)
		if !ok {
			return fail[R](apperr.InvalidState("cannot release the draw of round %s while it is %s", roundID, round.DrawStatus))
		}
		tour, err := s.repo.GetTournament(ctx, db, round.TournamentID)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		expected, err := s.activeTeamIDs(ctx, db, round)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		draft, err := s.loadRepr(ctx, db, round)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		if err := draft.Validate(tour.TeamsPerSide, expected); err != nil {
			return fail[R](apperr.InvalidState("draw of round %s cannot be released: %v", roundID, err))
		}

		now := s.clock()
		err = s.repo.UpdateRoundStatus(ctx, db, roundID, []tabtypes.DrawStatus{round.DrawStatus}, next, now)
		if errors.Is(err, tournamentdb.ErrNoRowsAffected) {
			return fail[R](apperr.InvalidState("round %s changed state during release", roundID))
		}
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		if err := s.repo.MarkDrawReleased(ctx, db, roundID, now); err != nil {
			return results.OperationResult[R, error]{}, err
		}
		draft.Status = next
		draft.ReleasedAt = &now
		return succeed(draft)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventbus.DrawUpdated(tournamentID, roundID))
	return repr, nil
}

func (s *TournamentService) activeTeamIDs(ctx context.Context, db bun.IDB, round *tournamentdb.Round) ([]string, error) {
	teams, err := s.repo.ListTeams(ctx, db, round.TournamentID)
	if err != nil {
		return nil, err
	}
	avail, err := s.repo.ListTeamAvailability(ctx, db, round.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		if available, set := avail[t.ID]; set && !available {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// StartRound opens a released round for ballots.
func (s *TournamentService) StartRound(ctx context.Context, roundID string) error {
	return s.transition(ctx, "StartRound", roundID, tabtypes.TransitionStart, nil)
}

// CompleteRound closes an in-progress round once every debate has a
// confirmed ballot. Completion changes standings, so the results stamp is
// bumped in the same transaction.
func (s *TournamentService) CompleteRound(ctx context.Context, roundID string) error {
	return s.transition(ctx, "CompleteRound", roundID, tabtypes.TransitionComplete,
		func(ctx context.Context, db bun.IDB, round *tournamentdb.Round) error {
			n, err := s.repo.CountUnconfirmedDebates(ctx, db, round.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperr.InvalidState("round %s has %d debates without a confirmed ballot", round.ID, n)
			}
			if _, err := s.repo.BumpResultsVersion(ctx, db, round.TournamentID); err != nil {
				return fmt.Errorf("bump results version: %w", err)
			}
			return nil
		})
}

// transition moves a round along edge t, running guard inside the same
// transaction first. A domain error from guard aborts with no change.
func (s *TournamentService) transition(
	ctx context.Context,
	operationName string,
	roundID string,
	t tabtypes.Transition,
	guard func(ctx context.Context, db bun.IDB, round *tournamentdb.Round) error,
) error {
	round, err := execute(s, ctx, operationName, roundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Round, error], error) {
		type R = *tournamentdb.Round

		round, err := s.repo.GetRound(ctx, db, roundID)
		if err != nil {
			return lookupFailure[R](err, "round %s not found", roundID)
		}
		next, ok := round.DrawStatus.Next(t)
		if !ok {
			return fail[R](apperr.InvalidState("round %s cannot %s while it is %s", roundID, t, round.DrawStatus))
		}
		if guard != nil {
			if err := guard(ctx, db, round); err != nil {
				return classify[R](err)
			}
		}
		err = s.repo.UpdateRoundStatus(ctx, db, roundID, []tabtypes.DrawStatus{round.DrawStatus}, next, s.clock())
		if errors.Is(err, tournamentdb.ErrNoRowsAffected) {
			return fail[R](apperr.InvalidState("round %s changed state concurrently", roundID))
		}
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		round.DrawStatus = next
		return succeed(round)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, eventbus.DrawUpdated(round.TournamentID, round.ID))
	return nil
}

// GetDraw returns the round's current draw.
func (s *TournamentService) GetDraw(ctx context.Context, roundID string) (*tabtypes.DrawRepr, error) {
	return execute(s, ctx, "GetDraw", roundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tabtypes.DrawRepr, error], error) {
		round, err := s.repo.GetRound(ctx, db, roundID)
		if err != nil {
			return lookupFailure[*tabtypes.DrawRepr](err, "round %s not found", roundID)
		}
		repr, err := s.loadRepr(ctx, db, round)
		if err != nil {
			return results.OperationResult[*tabtypes.DrawRepr, error]{}, err
		}
		return succeed(repr)
	})
}

func (s *TournamentService) GetRound(ctx context.Context, roundID string) (*tournamentdb.Round, error) {
	return execute(s, ctx, "GetRound", roundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Round, error], error) {
		round, err := s.repo.GetRound(ctx, db, roundID)
		if err != nil {
			return lookupFailure[*tournamentdb.Round](err, "round %s not found", roundID)
		}
		return succeed(round)
	})
}
