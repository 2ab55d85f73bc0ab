package tournamentservice

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/abacus-tab/abacus/app/eventbus"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/results"
)

// debateContext is what ballot handling reads about one debate.
type debateContext struct {
	debate *tournamentdb.Debate
	round  *tournamentdb.Round
	config tabtypes.TournamentConfig
	teams  []string
	panel  []tournamentdb.JudgeOfDebate
}

func (c *debateContext) role(judgeID string) (tabtypes.JudgeRole, bool) {
	for _, seat := range c.panel {
		if seat.JudgeID == judgeID {
			return seat.Role, true
		}
	}
	return "", false
}

func (c *debateContext) chair() string {
	for _, seat := range c.panel {
		if seat.Role == tabtypes.JudgeRoleChair {
			return seat.JudgeID
		}
	}
	return ""
}

// loadDebateContext reads a debate whose round is accepting ballots.
func (s *TournamentService) loadDebateContext(ctx context.Context, db bun.IDB, debateID string) (*debateContext, error) {
	debate, err := s.repo.GetDebate(ctx, db, debateID)
	if err != nil {
		return nil, notFoundAs(err, "debate %s not found", debateID)
	}
	round, err := s.repo.GetRound(ctx, db, debate.RoundID)
	if err != nil {
		return nil, notFoundAs(err, "round %s not found", debate.RoundID)
	}
	if round.DrawStatus != tabtypes.DrawStatusInProgress {
		return nil, apperr.InvalidState("round %s is %s; ballots are taken only while it is in progress", round.ID, round.DrawStatus)
	}
	tour, err := s.repo.GetTournament(ctx, db, round.TournamentID)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.ListTeamsOfDebates(ctx, db, []string{debate.ID})
	if err != nil {
		return nil, err
	}
	panel, err := s.repo.ListJudgesOfDebates(ctx, db, []string{debate.ID})
	if err != nil {
		return nil, err
	}
	c := &debateContext{debate: debate, round: round, config: tour.Config(), panel: panel}
	for _, sl := range slots {
		c.teams = append(c.teams, sl.TeamID)
	}
	sort.Strings(c.teams)
	return c, nil
}

// SubmitBallot stores a new version of a voting judge's ballot.
func (s *TournamentService) SubmitBallot(ctx context.Context, req SubmitBallotRequest) (*tournamentdb.Ballot, error) {
	return execute(s, ctx, "SubmitBallot", req.DebateID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*tournamentdb.Ballot, error], error) {
		return s.submitBallotLogic(ctx, db, req)
	})
}

func (s *TournamentService) submitBallotLogic(ctx context.Context, db bun.IDB, req SubmitBallotRequest) (results.OperationResult[*tournamentdb.Ballot, error], error) {
	type R = *tournamentdb.Ballot

	dc, err := s.loadDebateContext(ctx, db, req.DebateID)
	if err != nil {
		return classify[R](err)
	}
	role, seated := dc.role(req.JudgeID)
	if !seated {
		return fail[R](apperr.InvalidInput("judge_id", "judge %s is not on the panel of debate %s", req.JudgeID, req.DebateID))
	}
	if !role.Votes() {
		return fail[R](apperr.InvalidInput("judge_id", "trainee %s does not submit a ballot", req.JudgeID))
	}
	if req.MotionID != nil {
		motion, err := s.repo.GetMotion(ctx, db, *req.MotionID)
		if err != nil {
			return lookupFailure[R](err, "motion %s not found", *req.MotionID)
		}
		if motion.RoundID != dc.round.ID {
			return fail[R](apperr.InvalidInput("motion_id", "motion %s belongs to another round", motion.ID))
		}
	}

	speakers, err := s.repo.ListSpeakers(ctx, db, dc.round.TournamentID)
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	roster := make(map[string]string, len(speakers))
	for _, sp := range speakers {
		roster[sp.ID] = sp.TeamID
	}

	ranks, scores, err := checkSheet(dc.config, dc.round.Kind, dc.teams, roster, req)
	if err != nil {
		return fail[R](err)
	}

	version, err := s.repo.NextBallotVersion(ctx, db, req.DebateID, req.JudgeID)
	if err != nil {
		return results.OperationResult[R, error]{}, err
	}
	ballot := &tournamentdb.Ballot{
		ID:          newID(),
		DebateID:    req.DebateID,
		JudgeID:     req.JudgeID,
		MotionID:    req.MotionID,
		Version:     version,
		SubmittedAt: s.clock(),
		TeamRanks:   ranks,
		Scores:      scores,
	}
	if err := s.repo.InsertBallot(ctx, db, ballot); err != nil {
		return results.OperationResult[R, error]{}, err
	}
	return succeed(ballot)
}

type speechKey struct {
	team     string
	position int
}

// checkSheet validates one judge's sheet and derives each team's points.
// Preliminary points follow team totals, highest first; elimination points
// follow the advancing flags.
func checkSheet(
	cfg tabtypes.TournamentConfig,
	kind tabtypes.RoundKind,
	debateTeams []string,
	roster map[string]string,
	req SubmitBallotRequest,
) ([]*tournamentdb.BallotTeamRank, []*tournamentdb.BallotSpeakerScore, error) {
	inDebate := make(map[string]bool, len(debateTeams))
	for _, id := range debateTeams {
		inDebate[id] = true
	}
	if len(req.Teams) != len(debateTeams) {
		return nil, nil, apperr.InvalidInput("teams", "ballot lists %d teams, debate has %d", len(req.Teams), len(debateTeams))
	}
	advancing := make(map[string]bool, len(req.Teams))
	for _, t := range req.Teams {
		if !inDebate[t.TeamID] {
			return nil, nil, apperr.InvalidInput("teams", "team %s is not in this debate", t.TeamID)
		}
		if _, dup := advancing[t.TeamID]; dup {
			return nil, nil, apperr.InvalidInput("teams", "team %s listed twice", t.TeamID)
		}
		advancing[t.TeamID] = t.Advancing
	}

	n := cfg.SubstantiveSpeakers
	seen := make(map[speechKey]bool)
	totals := make(map[string]decimal.Decimal, len(debateTeams))
	scores := make([]*tournamentdb.BallotSpeakerScore, 0, len(req.Scores))
	for i, sc := range req.Scores {
		field := fmt.Sprintf("scores[%d]", i)
		if !inDebate[sc.TeamID] {
			return nil, nil, apperr.InvalidInput(field, "team %s is not in this debate", sc.TeamID)
		}
		if roster[sc.SpeakerID] != sc.TeamID {
			return nil, nil, apperr.InvalidInput(field, "speaker %s is not on team %s", sc.SpeakerID, sc.TeamID)
		}
		position := sc.Position
		if sc.Reply {
			if !cfg.ReplySpeakers {
				return nil, nil, apperr.InvalidInput(field, "this tournament has no reply speeches")
			}
			position = n
		} else if position < 0 || position >= n {
			return nil, nil, apperr.InvalidInput(field, "position %d is outside 0..%d", position, n-1)
		}
		key := speechKey{sc.TeamID, position}
		if seen[key] {
			return nil, nil, apperr.InvalidInput(field, "team %s position %d scored twice", sc.TeamID, position)
		}
		seen[key] = true
		if err := cfg.CheckScore(sc.Score, sc.Reply); err != nil {
			return nil, nil, apperr.InvalidInput(field, "%v", err)
		}
		totals[sc.TeamID] = totals[sc.TeamID].Add(sc.Score)
		scores = append(scores, &tournamentdb.BallotSpeakerScore{
			TeamID:    sc.TeamID,
			SpeakerID: sc.SpeakerID,
			Position:  position,
			Score:     sc.Score,
			Reply:     sc.Reply,
		})
	}

	speeches := n
	if cfg.ReplySpeakers {
		speeches++
	}
	for _, id := range debateTeams {
		for p := 0; p < speeches; p++ {
			if !seen[speechKey{id, p}] {
				return nil, nil, apperr.InvalidInput("scores", "team %s is missing the speech at position %d", id, p)
			}
		}
	}

	elim := kind == tabtypes.RoundKindElimination
	var points map[string]int
	var err error
	if elim {
		points, err = pointsFromAdvancing(debateTeams, advancing)
	} else {
		points, err = pointsFromTotals(debateTeams, totals)
	}
	if err != nil {
		return nil, nil, err
	}

	ranks := make([]*tournamentdb.BallotTeamRank, 0, len(debateTeams))
	for _, id := range debateTeams {
		adv := points[id] >= len(debateTeams)/2
		if elim {
			adv = advancing[id]
		}
		ranks = append(ranks, &tournamentdb.BallotTeamRank{TeamID: id, Points: points[id], Advancing: adv})
	}
	return ranks, scores, nil
}

// pointsFromTotals ranks teams by total and awards teams-1 points to the
// top team down to 0. Equal totals cannot be ranked.
func pointsFromTotals(teams []string, totals map[string]decimal.Decimal) (map[string]int, error) {
	order := append([]string(nil), teams...)
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]].GreaterThan(totals[order[j]]) })
	for i := 1; i < len(order); i++ {
		if totals[order[i]].Equal(totals[order[i-1]]) {
			return nil, apperr.InvalidInput("scores", "teams %s and %s have equal totals of %s",
				order[i-1], order[i], totals[order[i]])
		}
	}
	points := make(map[string]int, len(order))
	for i, id := range order {
		points[id] = len(order) - 1 - i
	}
	return points, nil
}

// pointsFromAdvancing awards 1 to each advancing team. Exactly half the
// debate advances.
func pointsFromAdvancing(teams []string, advancing map[string]bool) (map[string]int, error) {
	points := make(map[string]int, len(teams))
	count := 0
	for _, id := range teams {
		if advancing[id] {
			points[id] = 1
			count++
		}
	}
	if count != len(teams)/2 {
		return nil, apperr.InvalidInput("teams", "%d teams marked advancing, want %d", count, len(teams)/2)
	}
	return points, nil
}

// ConfirmBallot aggregates the latest voting ballots of a debate into its
// official result. It reports whether every debate of the round now has a
// confirmed result; completing the round stays an explicit step.
func (s *TournamentService) ConfirmBallot(ctx context.Context, debateID string) (*ConfirmBallotResult, error) {
	var tournamentID string
	res, err := execute(s, ctx, "ConfirmBallot", debateID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*ConfirmBallotResult, error], error) {
		type R = *ConfirmBallotResult

		dc, err := s.loadDebateContext(ctx, db, debateID)
		if err != nil {
			return classify[R](err)
		}
		tournamentID = dc.round.TournamentID

		latest, err := s.repo.ListLatestBallots(ctx, db, debateID)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		var voting []*tournamentdb.Ballot
		for _, b := range latest {
			if role, ok := dc.role(b.JudgeID); ok && role.Votes() {
				voting = append(voting, b)
			}
		}

		setup := dc.config.BallotSetupFor(dc.round.Kind)
		var teams []*tournamentdb.AggTeamResult
		var speakers []*tournamentdb.AggSpeakerResult
		if setup == tabtypes.BallotSetupIndividual {
			teams, speakers, err = aggregateIndividual(dc, voting)
		} else {
			teams, speakers, err = aggregateConsensus(dc, voting)
		}
		if err != nil {
			return classify[R](err)
		}

		if err := s.repo.ReplaceAggregates(ctx, db, debateID, teams, speakers); err != nil {
			return results.OperationResult[R, error]{}, err
		}
		ids := make([]string, len(voting))
		for i, b := range voting {
			ids[i] = b.ID
		}
		if err := s.repo.ConfirmBallots(ctx, db, ids, s.clock()); err != nil {
			return results.OperationResult[R, error]{}, err
		}
		version, err := s.repo.BumpResultsVersion(ctx, db, dc.round.TournamentID)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		open, err := s.repo.CountUnconfirmedDebates(ctx, db, dc.round.ID)
		if err != nil {
			return results.OperationResult[R, error]{}, err
		}
		return succeed(&ConfirmBallotResult{
			DebateID:       debateID,
			RoundID:        dc.round.ID,
			TeamResults:    teams,
			SpeakerResults: speakers,
			AllConfirmed:   open == 0,
			ResultsVersion: version,
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventbus.DrawUpdated(tournamentID, res.RoundID))
	return res, nil
}

// aggregateConsensus takes the chair's sheet. Any other voting ballot must
// agree with the chair on every team's points.
func aggregateConsensus(dc *debateContext, ballots []*tournamentdb.Ballot) ([]*tournamentdb.AggTeamResult, []*tournamentdb.AggSpeakerResult, error) {
	chair := dc.chair()
	var sheet *tournamentdb.Ballot
	for _, b := range ballots {
		if b.JudgeID == chair {
			sheet = b
		}
	}
	if sheet == nil {
		return nil, nil, apperr.InvalidState("chair of debate %s has not submitted a ballot", dc.debate.ID)
	}
	want := pointsOf(sheet)
	for _, b := range ballots {
		got := pointsOf(b)
		for team, p := range want {
			if got[team] != p {
				return nil, nil, apperr.InvalidInput("ballots", "ballot of judge %s disagrees with the chair on team %s", b.JudgeID, team)
			}
		}
	}

	teams := make([]*tournamentdb.AggTeamResult, 0, len(sheet.TeamRanks))
	for _, r := range sheet.TeamRanks {
		teams = append(teams, &tournamentdb.AggTeamResult{DebateID: dc.debate.ID, TeamID: r.TeamID, Points: r.Points})
	}
	speakers := make([]*tournamentdb.AggSpeakerResult, 0, len(sheet.Scores))
	for _, sc := range sheet.Scores {
		speakers = append(speakers, &tournamentdb.AggSpeakerResult{
			DebateID:  dc.debate.ID,
			TeamID:    sc.TeamID,
			SpeakerID: sc.SpeakerID,
			Position:  sc.Position,
			Score:     sc.Score,
			Reply:     sc.Reply,
		})
	}
	return teams, speakers, nil
}

// aggregateIndividual needs a ballot from every voting judge. Speeches are
// averaged across ballots. Preliminary points follow the averaged totals;
// elimination advancement follows the majority of ballots.
func aggregateIndividual(dc *debateContext, ballots []*tournamentdb.Ballot) ([]*tournamentdb.AggTeamResult, []*tournamentdb.AggSpeakerResult, error) {
	submitted := make(map[string]bool, len(ballots))
	for _, b := range ballots {
		submitted[b.JudgeID] = true
	}
	for _, seat := range dc.panel {
		if seat.Role.Votes() && !submitted[seat.JudgeID] {
			return nil, nil, apperr.InvalidState("judge %s of debate %s has not submitted a ballot", seat.JudgeID, dc.debate.ID)
		}
	}
	if len(ballots) == 0 {
		return nil, nil, apperr.InvalidState("debate %s has no ballots", dc.debate.ID)
	}

	type speech struct {
		speaker string
		reply   bool
		sum     decimal.Decimal
		count   int64
	}
	speeches := make(map[speechKey]*speech)
	var keys []speechKey
	votes := make(map[string]int)
	for _, b := range ballots {
		for _, sc := range b.Scores {
			k := speechKey{sc.TeamID, sc.Position}
			sp, ok := speeches[k]
			if !ok {
				sp = &speech{speaker: sc.SpeakerID, reply: sc.Reply}
				speeches[k] = sp
				keys = append(keys, k)
			}
			sp.sum = sp.sum.Add(sc.Score)
			sp.count++
		}
		for _, r := range b.TeamRanks {
			if r.Advancing {
				votes[r.TeamID]++
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].team != keys[j].team {
			return keys[i].team < keys[j].team
		}
		return keys[i].position < keys[j].position
	})

	totals := make(map[string]decimal.Decimal)
	speakers := make([]*tournamentdb.AggSpeakerResult, 0, len(keys))
	for _, k := range keys {
		sp := speeches[k]
		avg := sp.sum.DivRound(decimal.NewFromInt(sp.count), 2)
		totals[k.team] = totals[k.team].Add(avg)
		speakers = append(speakers, &tournamentdb.AggSpeakerResult{
			DebateID:  dc.debate.ID,
			TeamID:    k.team,
			SpeakerID: sp.speaker,
			Position:  k.position,
			Score:     avg,
			Reply:     sp.reply,
		})
	}

	var points map[string]int
	var err error
	if dc.round.Kind == tabtypes.RoundKindElimination {
		advancing := make(map[string]bool, len(dc.teams))
		for _, id := range dc.teams {
			advancing[id] = votes[id]*2 > len(ballots)
		}
		points, err = pointsFromAdvancing(dc.teams, advancing)
		if err != nil {
			return nil, nil, apperr.InvalidInput("ballots", "ballots have no majority on which teams advance")
		}
	} else {
		points, err = pointsFromTotals(dc.teams, totals)
		if err != nil {
			return nil, nil, err
		}
	}

	teams := make([]*tournamentdb.AggTeamResult, 0, len(dc.teams))
	for _, id := range dc.teams {
		teams = append(teams, &tournamentdb.AggTeamResult{DebateID: dc.debate.ID, TeamID: id, Points: points[id]})
	}
	return teams, speakers, nil
}

func pointsOf(b *tournamentdb.Ballot) map[string]int {
	out := make(map[string]int, len(b.TeamRanks))
	for _, r := range b.TeamRanks {
		out[r.TeamID] = r.Points
	}
	return out
}

// DebateTournament returns the tournament a debate belongs to.
func (s *TournamentService) DebateTournament(ctx context.Context, debateID string) (string, error) {
	return execute(s, ctx, "DebateTournament", debateID, func(ctx context.Context, db bun.IDB) (results.OperationResult[string, error], error) {
		debate, err := s.repo.GetDebate(ctx, db, debateID)
		if err != nil {
			return lookupFailure[string](err, "debate %s not found", debateID)
		}
		round, err := s.repo.GetRound(ctx, db, debate.RoundID)
		if err != nil {
			return results.OperationResult[string, error]{}, fmt.Errorf("failed to load round of debate %s: %w", debateID, err)
		}
		return succeed(round.TournamentID)
	})
}
