package tournamentdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

func (r *Impl) CreateMotion(ctx context.Context, db bun.IDB, m *Motion) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateMotion: %w", err)
	}
	return nil
}

func (r *Impl) GetMotion(ctx context.Context, db bun.IDB, id string) (*Motion, error) {
	db = r.resolveDB(db)
	m := new(Motion)
	if err := db.NewSelect().Model(m).Where("m.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetMotion: %w", notFound(err))
	}
	return m, nil
}

func (r *Impl) NextBallotVersion(ctx context.Context, db bun.IDB, debateID, judgeID string) (int, error) {
	db = r.resolveDB(db)
	var latest int
	err := db.NewSelect().
		Model((*Ballot)(nil)).
		ColumnExpr("COALESCE(MAX(b.version), 0)").
		Where("b.debate_id = ?", debateID).
		Where("b.judge_id = ?", judgeID).
		Scan(ctx, &latest)
	if err != nil {
		return 0, fmt.Errorf("tournamentdb.NextBallotVersion: %w", err)
	}
	return latest + 1, nil
}

func (r *Impl) InsertBallot(ctx context.Context, db bun.IDB, b *Ballot) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(b).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.InsertBallot: %w", err)
	}
	for _, tr := range b.TeamRanks {
		tr.BallotID = b.ID
	}
	for _, sc := range b.Scores {
		sc.BallotID = b.ID
	}
	if len(b.TeamRanks) > 0 {
		if _, err := db.NewInsert().Model(&b.TeamRanks).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.InsertBallot: ranks: %w", err)
		}
	}
	if len(b.Scores) > 0 {
		if _, err := db.NewInsert().Model(&b.Scores).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.InsertBallot: scores: %w", err)
		}
	}
	return nil
}

func (r *Impl) ListLatestBallots(ctx context.Context, db bun.IDB, debateID string) ([]*Ballot, error) {
	db = r.resolveDB(db)
	var all []*Ballot
	err := db.NewSelect().
		Model(&all).
		Relation("TeamRanks", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("btr.team_id ASC")
		}).
		Relation("Scores", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("bss.team_id ASC", "bss.position ASC")
		}).
		Where("b.debate_id = ?", debateID).
		Order("b.judge_id ASC", "b.version DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListLatestBallots: %w", err)
	}
	var out []*Ballot
	for _, b := range all {
		if len(out) > 0 && out[len(out)-1].JudgeID == b.JudgeID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Impl) ConfirmBallots(ctx context.Context, db bun.IDB, ballotIDs []string, at time.Time) error {
	if len(ballotIDs) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Ballot)(nil)).
		Set("confirmed = ?", true).
		Set("confirmed_at = ?", at.UTC()).
		Where("id IN (?)", bun.In(ballotIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.ConfirmBallots: %w", err)
	}
	return nil
}

func (r *Impl) CountUnconfirmedDebates(ctx context.Context, db bun.IDB, roundID string) (int, error) {
	db = r.resolveDB(db)
	confirmed := db.NewSelect().
		Model((*Ballot)(nil)).
		ColumnExpr("1").
		Where("b.debate_id = d.id").
		Where("b.confirmed = ?", true)
	n, err := db.NewSelect().
		Model((*Debate)(nil)).
		Where("d.round_id = ?", roundID).
		Where("NOT EXISTS (?)", confirmed).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tournamentdb.CountUnconfirmedDebates: %w", err)
	}
	return n, nil
}

func (r *Impl) ReplaceAggregates(ctx context.Context, db bun.IDB, debateID string, teams []*AggTeamResult, speakers []*AggSpeakerResult) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*AggTeamResult)(nil)).Where("debate_id = ?", debateID).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.ReplaceAggregates: %w", err)
	}
	if _, err := db.NewDelete().Model((*AggSpeakerResult)(nil)).Where("debate_id = ?", debateID).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.ReplaceAggregates: %w", err)
	}
	if len(teams) > 0 {
		if _, err := db.NewInsert().Model(&teams).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.ReplaceAggregates: teams: %w", err)
		}
	}
	if len(speakers) > 0 {
		if _, err := db.NewInsert().Model(&speakers).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.ReplaceAggregates: speakers: %w", err)
		}
	}
	return nil
}
