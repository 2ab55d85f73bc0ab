package tournamentdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) CreateInstitution(ctx context.Context, db bun.IDB, i *Institution) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(i).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateInstitution: %w", err)
	}
	return nil
}

func (r *Impl) ListInstitutions(ctx context.Context, db bun.IDB, tournamentID string) ([]Institution, error) {
	db = r.resolveDB(db)
	var out []Institution
	err := db.NewSelect().Model(&out).Where("i.tournament_id = ?", tournamentID).Order("i.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListInstitutions: %w", err)
	}
	return out, nil
}

func (r *Impl) CreateTeam(ctx context.Context, db bun.IDB, t *Team) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateTeam: %w", err)
	}
	return nil
}

func (r *Impl) GetTeam(ctx context.Context, db bun.IDB, id string) (*Team, error) {
	db = r.resolveDB(db)
	t := new(Team)
	if err := db.NewSelect().Model(t).Where("tm.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetTeam: %w", notFound(err))
	}
	return t, nil
}

func (r *Impl) ListTeams(ctx context.Context, db bun.IDB, tournamentID string) ([]Team, error) {
	db = r.resolveDB(db)
	var out []Team
	err := db.NewSelect().Model(&out).Where("tm.tournament_id = ?", tournamentID).Order("tm.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListTeams: %w", err)
	}
	return out, nil
}

func (r *Impl) CreateParticipant(ctx context.Context, db bun.IDB, p *Participant) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(p).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateParticipant: %w", err)
	}
	return nil
}

func (r *Impl) GetParticipant(ctx context.Context, db bun.IDB, id string) (*Participant, error) {
	db = r.resolveDB(db)
	p := new(Participant)
	if err := db.NewSelect().Model(p).Where("p.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetParticipant: %w", notFound(err))
	}
	return p, nil
}

func (r *Impl) CreateSpeaker(ctx context.Context, db bun.IDB, s *Speaker) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(s).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateSpeaker: %w", err)
	}
	return nil
}

func (r *Impl) ListSpeakers(ctx context.Context, db bun.IDB, tournamentID string) ([]Speaker, error) {
	db = r.resolveDB(db)
	var out []Speaker
	err := db.NewSelect().
		Model(&out).
		Relation("Participant").
		Where("s.tournament_id = ?", tournamentID).
		Order("s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListSpeakers: %w", err)
	}
	return out, nil
}

func (r *Impl) CreateJudge(ctx context.Context, db bun.IDB, j *Judge) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(j).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateJudge: %w", err)
	}
	return nil
}

func (r *Impl) GetJudge(ctx context.Context, db bun.IDB, id string) (*Judge, error) {
	db = r.resolveDB(db)
	j := new(Judge)
	if err := db.NewSelect().Model(j).Relation("Participant").Where("j.id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.GetJudge: %w", notFound(err))
	}
	return j, nil
}

func (r *Impl) ListJudges(ctx context.Context, db bun.IDB, tournamentID string) ([]Judge, error) {
	db = r.resolveDB(db)
	var out []Judge
	err := db.NewSelect().
		Model(&out).
		Relation("Participant").
		Where("j.tournament_id = ?", tournamentID).
		Order("j.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListJudges: %w", err)
	}
	return out, nil
}

func (r *Impl) CreateConflict(ctx context.Context, db bun.IDB, c *Conflict) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateConflict: %w", err)
	}
	return nil
}

func (r *Impl) ListConflicts(ctx context.Context, db bun.IDB, tournamentID string) ([]Conflict, error) {
	db = r.resolveDB(db)
	var out []Conflict
	err := db.NewSelect().Model(&out).Where("c.tournament_id = ?", tournamentID).Order("c.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListConflicts: %w", err)
	}
	return out, nil
}

func (r *Impl) SetTeamAvailability(ctx context.Context, db bun.IDB, a *TeamAvailability) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(a).
		On("CONFLICT (round_id, team_id) DO UPDATE").
		Set("available = EXCLUDED.available").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.SetTeamAvailability: %w", err)
	}
	return nil
}

func (r *Impl) SetJudgeAvailability(ctx context.Context, db bun.IDB, a *JudgeAvailability) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(a).
		On("CONFLICT (round_id, judge_id) DO UPDATE").
		Set("available = EXCLUDED.available").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.SetJudgeAvailability: %w", err)
	}
	return nil
}

func (r *Impl) ListTeamAvailability(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error) {
	db = r.resolveDB(db)
	var rows []TeamAvailability
	if err := db.NewSelect().Model(&rows).Where("ta.round_id = ?", roundID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.ListTeamAvailability: %w", err)
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[row.TeamID] = row.Available
	}
	return out, nil
}

func (r *Impl) ListJudgeAvailability(ctx context.Context, db bun.IDB, roundID string) (map[string]bool, error) {
	db = r.resolveDB(db)
	var rows []JudgeAvailability
	if err := db.NewSelect().Model(&rows).Where("ja.round_id = ?", roundID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("tournamentdb.ListJudgeAvailability: %w", err)
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[row.JudgeID] = row.Available
	}
	return out, nil
}
