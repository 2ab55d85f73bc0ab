package tournamentdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) CreateRoom(ctx context.Context, db bun.IDB, rm *Room) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(rm).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateRoom: %w", err)
	}
	return nil
}

func (r *Impl) GetRoom(ctx context.Context, db bun.IDB, id string) (*Room, error) {
	db = r.resolveDB(db)
	rm := new(Room)
	if err := db.NewSelect().Model(rm).Where("rm.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetRoom: %w", notFound(err))
	}
	return rm, nil
}

func (r *Impl) ListRooms(ctx context.Context, db bun.IDB, tournamentID string) ([]Room, error) {
	db = r.resolveDB(db)
	var out []Room
	err := db.NewSelect().
		Model(&out).
		Where("rm.tournament_id = ?", tournamentID).
		Order("rm.priority DESC", "rm.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListRooms: %w", err)
	}
	return out, nil
}

func (r *Impl) CreateRoomCategory(ctx context.Context, db bun.IDB, c *RoomCategory) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateRoomCategory: %w", err)
	}
	return nil
}

func (r *Impl) GetRoomCategory(ctx context.Context, db bun.IDB, id string) (*RoomCategory, error) {
	db = r.resolveDB(db)
	c := new(RoomCategory)
	if err := db.NewSelect().Model(c).Where("rc.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetRoomCategory: %w", notFound(err))
	}
	return c, nil
}

func (r *Impl) AddRoomToCategory(ctx context.Context, db bun.IDB, m *RoomCategoryMember) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(m).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.AddRoomToCategory: %w", err)
	}
	return nil
}

func (r *Impl) ListRoomCategories(ctx context.Context, db bun.IDB, tournamentID string) (map[string][]string, error) {
	db = r.resolveDB(db)
	var rows []RoomCategoryMember
	err := db.NewSelect().
		Model(&rows).
		Join("JOIN room_categories AS rc ON rc.id = rcm.category_id").
		Where("rc.tournament_id = ?", tournamentID).
		Order("rcm.room_id ASC", "rcm.category_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListRoomCategories: %w", err)
	}
	out := make(map[string][]string)
	for _, row := range rows {
		out[row.RoomID] = append(out[row.RoomID], row.CategoryID)
	}
	return out, nil
}

func (r *Impl) SetRoomPreference(ctx context.Context, db bun.IDB, p *RoomPreference) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(p).
		On("CONFLICT (participant_id, category_id) DO UPDATE").
		Set("level = EXCLUDED.level").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.SetRoomPreference: %w", err)
	}
	return nil
}

func (r *Impl) ListRoomPreferences(ctx context.Context, db bun.IDB, tournamentID string) (map[string]map[string]int, error) {
	db = r.resolveDB(db)
	var rows []RoomPreference
	err := db.NewSelect().
		Model(&rows).
		Join("JOIN room_categories AS rc ON rc.id = rp.category_id").
		Where("rc.tournament_id = ?", tournamentID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListRoomPreferences: %w", err)
	}
	out := make(map[string]map[string]int)
	for _, row := range rows {
		if out[row.ParticipantID] == nil {
			out[row.ParticipantID] = make(map[string]int)
		}
		out[row.ParticipantID][row.CategoryID] = row.Level
	}
	return out, nil
}
