package tournamentdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) InsertTicket(ctx context.Context, db bun.IDB, t *Ticket) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(t).Exec(ctx); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("tournamentdb.InsertTicket: round %s seq %d: %w", t.RoundID, t.Seq, ErrDuplicate)
		}
		return fmt.Errorf("tournamentdb.InsertTicket: %w", err)
	}
	return nil
}

func (r *Impl) GetTicket(ctx context.Context, db bun.IDB, id string) (*Ticket, error) {
	db = r.resolveDB(db)
	t := new(Ticket)
	if err := db.NewSelect().Model(t).Where("tk.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetTicket: %w", notFound(err))
	}
	return t, nil
}

func (r *Impl) LatestTicket(ctx context.Context, db bun.IDB, roundID string) (*Ticket, error) {
	db = r.resolveDB(db)
	t := new(Ticket)
	err := db.NewSelect().
		Model(t).
		Where("tk.round_id = ?", roundID).
		Order("tk.seq DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.LatestTicket: %w", notFound(err))
	}
	return t, nil
}

func (r *Impl) CancelTickets(ctx context.Context, db bun.IDB, roundID string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Ticket)(nil)).
		Set("cancelled = ?", true).
		Where("round_id = ?", roundID).
		Where("released = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.CancelTickets: %w", err)
	}
	return nil
}

func (r *Impl) ReleaseTicket(ctx context.Context, db bun.IDB, ticketID string, errMsg *string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Ticket)(nil)).
		Set("released = ?", true).
		Set("error_message = ?", errMsg).
		Where("id = ?", ticketID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.ReleaseTicket: %w", err)
	}
	return nil
}
