package tournamentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	"github.com/uptrace/bun"
)

// Impl implements Repository on bun.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new tournament repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Impl) CreateTournament(ctx context.Context, db bun.IDB, t *Tournament) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateTournament: %w", err)
	}
	return nil
}

func (r *Impl) GetTournament(ctx context.Context, db bun.IDB, id string) (*Tournament, error) {
	db = r.resolveDB(db)
	t := new(Tournament)
	if err := db.NewSelect().Model(t).Where("t.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetTournament: %w", notFound(err))
	}
	return t, nil
}

func (r *Impl) ListTournaments(ctx context.Context, db bun.IDB) ([]Tournament, error) {
	db = r.resolveDB(db)
	var out []Tournament
	if err := db.NewSelect().Model(&out).Order("t.created_at ASC", "t.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.ListTournaments: %w", err)
	}
	return out, nil
}

func (r *Impl) BumpResultsVersion(ctx context.Context, db bun.IDB, tournamentID string) (int64, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Tournament)(nil)).
		Set("results_version = results_version + 1").
		Where("id = ?", tournamentID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tournamentdb.BumpResultsVersion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("tournamentdb.BumpResultsVersion: %w", ErrNotFound)
	}
	var version int64
	err = db.NewSelect().
		Model((*Tournament)(nil)).
		Column("results_version").
		Where("id = ?", tournamentID).
		Scan(ctx, &version)
	if err != nil {
		return 0, fmt.Errorf("tournamentdb.BumpResultsVersion: %w", err)
	}
	return version, nil
}

func (r *Impl) CreateRound(ctx context.Context, db bun.IDB, rd *Round) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(rd).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateRound: %w", err)
	}
	return nil
}

func (r *Impl) GetRound(ctx context.Context, db bun.IDB, id string) (*Round, error) {
	db = r.resolveDB(db)
	rd := new(Round)
	if err := db.NewSelect().Model(rd).Where("r.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetRound: %w", notFound(err))
	}
	return rd, nil
}

func (r *Impl) ListRounds(ctx context.Context, db bun.IDB, tournamentID string) ([]Round, error) {
	db = r.resolveDB(db)
	var out []Round
	err := db.NewSelect().
		Model(&out).
		Where("r.tournament_id = ?", tournamentID).
		Order("r.seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListRounds: %w", err)
	}
	return out, nil
}

func (r *Impl) UpdateRoundStatus(ctx context.Context, db bun.IDB, roundID string, from []tabtypes.DrawStatus, to tabtypes.DrawStatus, at time.Time) error {
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Round)(nil)).
		Set("draw_status = ?", to).
		Where("id = ?", roundID).
		Where("draw_status IN (?)", bun.In(from))
	switch to {
	case tabtypes.DrawStatusReleased:
		q = q.Set("released_at = ?", at.UTC())
	case tabtypes.DrawStatusCompleted:
		q = q.Set("completed = ?", true)
	case tabtypes.DrawStatusNone:
		q = q.Set("released_at = NULL")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.UpdateRoundStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tournamentdb.UpdateRoundStatus: %w", err)
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
