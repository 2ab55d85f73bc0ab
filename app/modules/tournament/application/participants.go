package tournamentservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/eventbus"
	"github.com/abacus-tab/abacus/app/modules/tournament/domain/standings"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/results"
)

var (
	defaultTeamMetrics    = []string{"points", "tss"}
	defaultSpeakerMetrics = []string{"total", "average"}
)

// newID returns a time-ordered identifier.
func newID() string { return uuid.Must(uuid.NewV7()).String() }

// newPrivateURL returns an unguessable participant token.
func newPrivateURL() string { return uuid.NewString() }

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func slugify(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "-")
}

// CreateTournament validates and stores a tournament configuration.
func (s *TournamentService) CreateTournament(ctx context.Context, req CreateTournamentRequest) (*tournamentdb.Tournament, error) {
	return execute(s, ctx, "CreateTournament", req.Name, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Tournament, error], error) {
		return s.createTournamentLogic(ctx, db, req)
	})
}

func (s *TournamentService) createTournamentLogic(ctx context.Context, db bun.IDB, req CreateTournamentRequest) (results.OperationResult[*tournamentdb.Tournament, error], error) {
	type R = *tournamentdb.Tournament
	if strings.TrimSpace(req.Name) == "" {
		return fail[R](apperr.InvalidInput("name", "name is required"))
	}
	if req.TeamsPerSide != 1 && req.TeamsPerSide != 2 {
		return fail[R](apperr.InvalidInput("teams_per_side", "teams per side must be 1 or 2, got %d", req.TeamsPerSide))
	}
	if req.SubstantiveSpeakers < 1 {
		return fail[R](apperr.InvalidInput("substantive_speakers", "at least one substantive speaker is required"))
	}
	if req.PoolBallotSetup == "" {
		req.PoolBallotSetup = tabtypes.BallotSetupConsensus
	}
	if req.ElimBallotSetup == "" {
		req.ElimBallotSetup = tabtypes.BallotSetupConsensus
	}
	if !req.PoolBallotSetup.Valid() {
		return fail[R](apperr.InvalidInput("pool_ballot_setup", "unknown ballot setup %q", req.PoolBallotSetup))
	}
	if !req.ElimBallotSetup.Valid() {
		return fail[R](apperr.InvalidInput("elim_ballot_setup", "unknown ballot setup %q", req.ElimBallotSetup))
	}
	if len(req.TeamStandingsMetrics) == 0 {
		req.TeamStandingsMetrics = defaultTeamMetrics
	}
	if len(req.SpeakerStandingsMetrics) == 0 {
		req.SpeakerStandingsMetrics = defaultSpeakerMetrics
	}
	if _, err := standings.ParseTeamMetrics(req.TeamStandingsMetrics); err != nil {
		return fail[R](err)
	}
	if _, err := standings.ParseSpeakerMetrics(req.SpeakerStandingsMetrics); err != nil {
		return fail[R](err)
	}
	if req.SubstantiveMinSpeak != nil && req.SubstantiveMaxSpeak != nil && req.SubstantiveMinSpeak.GreaterThan(*req.SubstantiveMaxSpeak) {
		return fail[R](apperr.InvalidInput("substantive_min_speak", "minimum speak exceeds maximum"))
	}
	if req.ReplyMinSpeak != nil && req.ReplyMaxSpeak != nil && req.ReplyMinSpeak.GreaterThan(*req.ReplyMaxSpeak) {
		return fail[R](apperr.InvalidInput("reply_min_speak", "minimum reply speak exceeds maximum"))
	}
	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}

	t := &tournamentdb.Tournament{
		ID:                      newID(),
		Name:                    req.Name,
		Slug:                    slug,
		TeamsPerSide:            req.TeamsPerSide,
		SubstantiveSpeakers:     req.SubstantiveSpeakers,
		ReplySpeakers:           req.ReplySpeakers,
		PoolBallotSetup:         req.PoolBallotSetup,
		ElimBallotSetup:         req.ElimBallotSetup,
		InstitutionPenalty:      req.InstitutionPenalty,
		HistoryPenalty:          req.HistoryPenalty,
		PullupMetrics:           req.PullupMetrics,
		TeamStandingsMetrics:    req.TeamStandingsMetrics,
		SpeakerStandingsMetrics: req.SpeakerStandingsMetrics,
		SubstantiveMinSpeak:     nullDecimal(req.SubstantiveMinSpeak),
		SubstantiveMaxSpeak:     nullDecimal(req.SubstantiveMaxSpeak),
		SubstantiveSpeakStep:    nullDecimal(req.SubstantiveSpeakStep),
		ReplyMinSpeak:           nullDecimal(req.ReplyMinSpeak),
		ReplyMaxSpeak:           nullDecimal(req.ReplyMaxSpeak),
		CreatedAt:               s.clock(),
	}
	if err := s.repo.CreateTournament(ctx, db, t); err != nil {
		return results.OperationResult[R, error]{}, fmt.Errorf("failed to create tournament: %w", err)
	}
	return succeed(t)
}

// CreateRound adds a round in state none.
func (s *TournamentService) CreateRound(ctx context.Context, req CreateRoundRequest) (*tournamentdb.Round, error) {
	return execute(s, ctx, "CreateRound", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Round, error], error) {
		type R = *tournamentdb.Round
		if _, err := s.repo.GetTournament(ctx, db, req.TournamentID); err != nil {
			return lookupFailure[R](err, "tournament %s", req.TournamentID)
		}
		if req.Kind == "" {
			req.Kind = tabtypes.RoundKindPreliminary
		}
		if !req.Kind.Valid() {
			return fail[R](apperr.InvalidInput("kind", "round kind must be P or E, got %q", req.Kind))
		}
		if req.Seq < 1 {
			return fail[R](apperr.InvalidInput("seq", "seq must be positive"))
		}
		rounds, err := s.repo.ListRounds(ctx, db, req.TournamentID)
		if err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to list rounds: %w", err)
		}
		for _, r := range rounds {
			if r.Seq == req.Seq {
				return fail[R](apperr.InvalidInput("seq", "round %d already exists", req.Seq))
			}
		}
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("Round %d", req.Seq)
		}
		r := &tournamentdb.Round{
			ID:           newID(),
			TournamentID: req.TournamentID,
			Seq:          req.Seq,
			Kind:         req.Kind,
			Name:         name,
			DrawStatus:   tabtypes.DrawStatusNone,
			CreatedAt:    s.clock(),
		}
		if err := s.repo.CreateRound(ctx, db, r); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create round: %w", err)
		}
		return succeed(r)
	})
}

// CreateInstitution stores an institution.
func (s *TournamentService) CreateInstitution(ctx context.Context, req CreateInstitutionRequest) (*tournamentdb.Institution, error) {
	inst, err := execute(s, ctx, "CreateInstitution", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Institution, error], error) {
		type R = *tournamentdb.Institution
		if strings.TrimSpace(req.Name) == "" {
			return fail[R](apperr.InvalidInput("name", "name is required"))
		}
		if _, err := s.repo.GetTournament(ctx, db, req.TournamentID); err != nil {
			return lookupFailure[R](err, "tournament %s", req.TournamentID)
		}
		i := &tournamentdb.Institution{ID: newID(), TournamentID: req.TournamentID, Name: req.Name, Code: req.Code}
		if err := s.repo.CreateInstitution(ctx, db, i); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create institution: %w", err)
		}
		return succeed(i)
	})
	if err == nil {
		s.publish(ctx, eventbus.ParticipantsUpdate(req.TournamentID))
	}
	return inst, err
}

// RegisterTeam creates a team with its speakers. Each speaker gets a
// private URL token.
func (s *TournamentService) RegisterTeam(ctx context.Context, req RegisterTeamRequest) (*TeamView, error) {
	view, err := execute(s, ctx, "RegisterTeam", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*TeamView, error], error) {
		return s.registerTeamLogic(ctx, db, req)
	})
	if err == nil {
		s.publish(ctx, eventbus.ParticipantsUpdate(req.TournamentID))
	}
	return view, err
}

func (s *TournamentService) registerTeamLogic(ctx context.Context, db bun.IDB, req RegisterTeamRequest) (results.OperationResult[*TeamView, error], error) {
	type R = *TeamView
	if strings.TrimSpace(req.Name) == "" {
		return fail[R](apperr.InvalidInput("name", "name is required"))
	}
	tour, err := s.repo.GetTournament(ctx, db, req.TournamentID)
	if err != nil {
		return lookupFailure[R](err, "tournament %s", req.TournamentID)
	}
	if len(req.Speakers) != tour.SubstantiveSpeakers {
		return fail[R](apperr.InvalidInput("speakers", "team needs %d speakers, got %d", tour.SubstantiveSpeakers, len(req.Speakers)))
	}
	existing, err := s.repo.ListTeams(ctx, db, req.TournamentID)
	if err != nil {
		return results.OperationResult[R, error]{}, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, t := range existing {
		if strings.EqualFold(t.Name, req.Name) {
			return fail[R](apperr.InvalidInput("name", "team %q already exists", req.Name))
		}
	}

	team := &tournamentdb.Team{
		ID:            newID(),
		TournamentID:  req.TournamentID,
		Name:          req.Name,
		InstitutionID: req.InstitutionID,
		Number:        len(existing) + 1,
		CreatedAt:     s.clock(),
	}
	if err := s.repo.CreateTeam(ctx, db, team); err != nil {
		return results.OperationResult[R, error]{}, fmt.Errorf("failed to create team: %w", err)
	}
	view := &TeamView{Team: team}
	for i, in := range req.Speakers {
		if strings.TrimSpace(in.Name) == "" {
			return fail[R](apperr.InvalidInput(fmt.Sprintf("speakers[%d].name", i), "speaker name is required"))
		}
		p := &tournamentdb.Participant{
			ID:            newID(),
			TournamentID:  req.TournamentID,
			Name:          in.Name,
			Email:         in.Email,
			PrivateURL:    newPrivateURL(),
			InstitutionID: req.InstitutionID,
		}
		if err := s.repo.CreateParticipant(ctx, db, p); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create participant: %w", err)
		}
		sp := &tournamentdb.Speaker{ID: newID(), TournamentID: req.TournamentID, ParticipantID: p.ID, TeamID: team.ID}
		if err := s.repo.CreateSpeaker(ctx, db, sp); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create speaker: %w", err)
		}
		view.Speakers = append(view.Speakers, sp)
		view.People = append(view.People, p)
	}
	return succeed(view)
}

// RegisterJudge creates a judge and its participant record.
func (s *TournamentService) RegisterJudge(ctx context.Context, req RegisterJudgeRequest) (*JudgeView, error) {
	view, err := execute(s, ctx, "RegisterJudge", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*JudgeView, error], error) {
		type R = *JudgeView
		if strings.TrimSpace(req.Name) == "" {
			return fail[R](apperr.InvalidInput("name", "name is required"))
		}
		if req.Rating < 0 {
			return fail[R](apperr.InvalidInput("rating", "rating must not be negative"))
		}
		if _, err := s.repo.GetTournament(ctx, db, req.TournamentID); err != nil {
			return lookupFailure[R](err, "tournament %s", req.TournamentID)
		}
		p := &tournamentdb.Participant{
			ID:            newID(),
			TournamentID:  req.TournamentID,
			Name:          req.Name,
			Email:         req.Email,
			PrivateURL:    newPrivateURL(),
			InstitutionID: req.InstitutionID,
		}
		if err := s.repo.CreateParticipant(ctx, db, p); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create participant: %w", err)
		}
		j := &tournamentdb.Judge{ID: newID(), TournamentID: req.TournamentID, ParticipantID: p.ID, Rating: req.Rating}
		if err := s.repo.CreateJudge(ctx, db, j); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create judge: %w", err)
		}
		return succeed(&JudgeView{Judge: j, Participant: p})
	})
	if err == nil {
		s.publish(ctx, eventbus.ParticipantsUpdate(req.TournamentID))
	}
	return view, err
}

// AddConflict records a symmetric conflict between two participants.
func (s *TournamentService) AddConflict(ctx context.Context, req AddConflictRequest) (*tournamentdb.Conflict, error) {
	c, err := execute(s, ctx, "AddConflict", req.TournamentID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Conflict, error], error) {
		type R = *tournamentdb.Conflict
		if !req.Kind.Valid() {
			return fail[R](apperr.InvalidInput("kind", "conflict kind must be TT, JT or JJ, got %q", req.Kind))
		}
		if req.AID == "" || req.BID == "" || req.AID == req.BID {
			return fail[R](apperr.InvalidInput("b_id", "a conflict needs two distinct participants"))
		}
		if _, err := s.repo.GetTournament(ctx, db, req.TournamentID); err != nil {
			return lookupFailure[R](err, "tournament %s", req.TournamentID)
		}
		aJudge, bJudge := req.Kind != tabtypes.ConflictTeamTeam, req.Kind == tabtypes.ConflictJudgeJudge
		if err := s.checkConflictParty(ctx, db, req.TournamentID, req.AID, aJudge, "a_id"); err != nil {
			return classify[R](err)
		}
		if err := s.checkConflictParty(ctx, db, req.TournamentID, req.BID, bJudge, "b_id"); err != nil {
			return classify[R](err)
		}
		c := &tournamentdb.Conflict{ID: newID(), TournamentID: req.TournamentID, Kind: req.Kind, AID: req.AID, BID: req.BID}
		if err := s.repo.CreateConflict(ctx, db, c); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create conflict: %w", err)
		}
		return succeed(c)
	})
	if err == nil {
		s.publish(ctx, eventbus.ParticipantsUpdate(req.TournamentID))
	}
	return c, err
}

// checkConflictParty fails unless id is a judge (or team) of the
// tournament.
func (s *TournamentService) checkConflictParty(ctx context.Context, db bun.IDB, tournamentID, id string, judge bool, field string) error {
	var owner string
	if judge {
		j, err := s.repo.GetJudge(ctx, db, id)
		if err != nil {
			return notFoundAs(err, "judge %s not found", id)
		}
		owner = j.TournamentID
	} else {
		t, err := s.repo.GetTeam(ctx, db, id)
		if err != nil {
			return notFoundAs(err, "team %s not found", id)
		}
		owner = t.TournamentID
	}
	if owner != tournamentID {
		return apperr.InvalidInput(field, "%s is not in tournament %s", id, tournamentID)
	}
	return nil
}

// CreateMotion attaches a motion to a round.
func (s *TournamentService) CreateMotion(ctx context.Context, req CreateMotionRequest) (*tournamentdb.Motion, error) {
	return execute(s, ctx, "CreateMotion", req.RoundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Motion, error], error) {
		type R = *tournamentdb.Motion
		if strings.TrimSpace(req.Text) == "" {
			return fail[R](apperr.InvalidInput("text", "motion text is required"))
		}
		if _, err := s.repo.GetRound(ctx, db, req.RoundID); err != nil {
			return lookupFailure[R](err, "round %s", req.RoundID)
		}
		m := &tournamentdb.Motion{ID: newID(), RoundID: req.RoundID, Text: req.Text, InfoSlide: req.InfoSlide}
		if err := s.repo.CreateMotion(ctx, db, m); err != nil {
			return results.OperationResult[R, error]{}, fmt.Errorf("failed to create motion: %w", err)
		}
		return succeed(m)
	})
}

// SetTeamAvailability marks a team in or out of a round.
func (s *TournamentService) SetTeamAvailability(ctx context.Context, req AvailabilityRequest) error {
	return s.setAvailability(ctx, "SetTeamAvailability", req, func(ctx context.Context, db bun.IDB, round *tournamentdb.Round) (results.OperationResult[string, error], error) {
		team, err := s.repo.GetTeam(ctx, db, req.SubjectID)
		if err != nil {
			return lookupFailure[string](err, "team %s", req.SubjectID)
		}
		if team.TournamentID != round.TournamentID {
			return fail[string](apperr.InvalidInput("subject_id", "team %s is not in the round's tournament", req.SubjectID))
		}
		a := &tournamentdb.TeamAvailability{RoundID: req.RoundID, TeamID: req.SubjectID, Available: req.Available}
		if err := s.repo.SetTeamAvailability(ctx, db, a); err != nil {
			return results.OperationResult[string, error]{}, fmt.Errorf("failed to set team availability: %w", err)
		}
		return succeed(round.TournamentID)
	})
}

// SetJudgeAvailability marks a judge in or out of a round.
func (s *TournamentService) SetJudgeAvailability(ctx context.Context, req AvailabilityRequest) error {
	return s.setAvailability(ctx, "SetJudgeAvailability", req, func(ctx context.Context, db bun.IDB, round *tournamentdb.Round) (results.OperationResult[string, error], error) {
		judge, err := s.repo.GetJudge(ctx, db, req.SubjectID)
		if err != nil {
			return lookupFailure[string](err, "judge %s", req.SubjectID)
		}
		if judge.TournamentID != round.TournamentID {
			return fail[string](apperr.InvalidInput("subject_id", "judge %s is not in the round's tournament", req.SubjectID))
		}
		a := &tournamentdb.JudgeAvailability{RoundID: req.RoundID, JudgeID: req.SubjectID, Available: req.Available}
		if err := s.repo.SetJudgeAvailability(ctx, db, a); err != nil {
			return results.OperationResult[string, error]{}, fmt.Errorf("failed to set judge availability: %w", err)
		}
		return succeed(round.TournamentID)
	})
}

func (s *TournamentService) setAvailability(
	ctx context.Context,
	op string,
	req AvailabilityRequest,
	write func(ctx context.Context, db bun.IDB, round *tournamentdb.Round) (results.OperationResult[string, error], error),
) error {
	tournamentID, err := execute(s, ctx, op, req.RoundID, func(ctx context.Context, db bun.IDB) (results.OperationResult[string, error], error) {
		round, err := s.repo.GetRound(ctx, db, req.RoundID)
		if err != nil {
			return lookupFailure[string](err, "round %s", req.RoundID)
		}
		switch round.DrawStatus {
		case tabtypes.DrawStatusNone, tabtypes.DrawStatusDrafted:
		default:
			return fail[string](apperr.InvalidState("availability cannot change while round is %s", round.DrawStatus))
		}
		return write(ctx, db, round)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, eventbus.AvailabilityUpdate(tournamentID, req.RoundID))
	return nil
}
