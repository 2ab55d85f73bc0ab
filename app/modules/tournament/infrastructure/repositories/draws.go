package tournamentdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

func (r *Impl) GetDrawByRound(ctx context.Context, db bun.IDB, roundID string) (*Draw, error) {
	db = r.resolveDB(db)
	d := new(Draw)
	if err := db.NewSelect().Model(d).Where("dr.round_id = ?", roundID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetDrawByRound: %w", notFound(err))
	}
	return d, nil
}

func (r *Impl) InsertDraw(ctx context.Context, db bun.IDB, d *Draw, debates []*Debate, teams []*TeamOfDebate, judges []*JudgeOfDebate) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(d).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.InsertDraw: draw: %w", err)
	}
	if len(debates) > 0 {
		if _, err := db.NewInsert().Model(&debates).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.InsertDraw: debates: %w", err)
		}
	}
	if len(teams) > 0 {
		if _, err := db.NewInsert().Model(&teams).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.InsertDraw: teams: %w", err)
		}
	}
	if len(judges) > 0 {
		if _, err := db.NewInsert().Model(&judges).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.InsertDraw: judges: %w", err)
		}
	}
	return nil
}

func (r *Impl) DeleteDrawForRound(ctx context.Context, db bun.IDB, roundID string) error {
	db = r.resolveDB(db)
	debates := db.NewSelect().Model((*Debate)(nil)).Column("id").Where("round_id = ?", roundID)
	if _, err := db.NewDelete().Model((*TeamOfDebate)(nil)).Where("debate_id IN (?)", debates).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.DeleteDrawForRound: teams: %w", err)
	}
	if _, err := db.NewDelete().Model((*JudgeOfDebate)(nil)).Where("debate_id IN (?)", debates).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.DeleteDrawForRound: judges: %w", err)
	}
	if _, err := db.NewDelete().Model((*Debate)(nil)).Where("round_id = ?", roundID).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.DeleteDrawForRound: debates: %w", err)
	}
	if _, err := db.NewDelete().Model((*Draw)(nil)).Where("round_id = ?", roundID).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.DeleteDrawForRound: draw: %w", err)
	}
	return nil
}

func (r *Impl) MarkDrawReleased(ctx context.Context, db bun.IDB, roundID string, at time.Time) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Draw)(nil)).
		Set("released_at = ?", at.UTC()).
		Where("round_id = ?", roundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.MarkDrawReleased: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tournamentdb.MarkDrawReleased: %w", ErrNotFound)
	}
	return nil
}

func (r *Impl) GetDebate(ctx context.Context, db bun.IDB, id string) (*Debate, error) {
	db = r.resolveDB(db)
	d := new(Debate)
	if err := db.NewSelect().Model(d).Where("d.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetDebate: %w", notFound(err))
	}
	return d, nil
}

func (r *Impl) ListDebates(ctx context.Context, db bun.IDB, roundID string) ([]Debate, error) {
	db = r.resolveDB(db)
	var out []Debate
	if err := db.NewSelect().Model(&out).Where("d.round_id = ?", roundID).Order("d.idx ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.ListDebates: %w", err)
	}
	return out, nil
}

func (r *Impl) ListTeamsOfDebates(ctx context.Context, db bun.IDB, debateIDs []string) ([]TeamOfDebate, error) {
	if len(debateIDs) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var out []TeamOfDebate
	err := db.NewSelect().
		Model(&out).
		Where("tod.debate_id IN (?)", bun.In(debateIDs)).
		Order("tod.debate_id ASC", "tod.seq ASC", "tod.side ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListTeamsOfDebates: %w", err)
	}
	return out, nil
}

func (r *Impl) ListJudgesOfDebates(ctx context.Context, db bun.IDB, debateIDs []string) ([]JudgeOfDebate, error) {
	if len(debateIDs) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var out []JudgeOfDebate
	err := db.NewSelect().
		Model(&out).
		Where("jod.debate_id IN (?)", bun.In(debateIDs)).
		Order("jod.debate_id ASC", "jod.role ASC", "jod.judge_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListJudgesOfDebates: %w", err)
	}
	return out, nil
}

func (r *Impl) SetDebateRoom(ctx context.Context, db bun.IDB, debateID string, roomID *string) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Debate)(nil)).
		Set("room_id = ?", roomID).
		Where("id = ?", debateID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.SetDebateRoom: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tournamentdb.SetDebateRoom: %w", ErrNotFound)
	}
	return nil
}

func (r *Impl) ClearRoom(ctx context.Context, db bun.IDB, roomID string, roundIDs []string) ([]string, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var affected []string
	err := db.NewSelect().
		Model((*Debate)(nil)).
		ColumnExpr("DISTINCT round_id").
		Where("room_id = ?", roomID).
		Where("round_id IN (?)", bun.In(roundIDs)).
		Order("round_id ASC").
		Scan(ctx, &affected)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ClearRoom: %w", err)
	}
	_, err = db.NewUpdate().
		Model((*Debate)(nil)).
		Set("room_id = NULL").
		Where("room_id = ?", roomID).
		Where("round_id IN (?)", bun.In(roundIDs)).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ClearRoom: %w", err)
	}
	return affected, nil
}
