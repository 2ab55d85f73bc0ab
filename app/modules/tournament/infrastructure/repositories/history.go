package tournamentdb

import (
	"context"
	"fmt"

	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	"github.com/uptrace/bun"
)

func (r *Impl) ListSlotHistory(ctx context.Context, db bun.IDB, tournamentID string, beforeSeq int) ([]SlotRecord, error) {
	db = r.resolveDB(db)
	var out []SlotRecord
	err := db.NewSelect().
		TableExpr("teams_of_debate AS tod").
		ColumnExpr("tod.debate_id, r.seq AS round_seq, tod.team_id, tod.side, tod.seq").
		Join("JOIN debates AS d ON d.id = tod.debate_id").
		Join("JOIN rounds AS r ON r.id = d.round_id").
		Where("r.tournament_id = ?", tournamentID).
		Where("r.seq < ?", beforeSeq).
		Where("r.draw_status IN (?)", bun.In([]tabtypes.DrawStatus{
			tabtypes.DrawStatusReleased, tabtypes.DrawStatusInProgress, tabtypes.DrawStatusCompleted,
		})).
		OrderExpr("r.seq ASC, tod.debate_id ASC, tod.seq ASC, tod.side ASC").
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListSlotHistory: %w", err)
	}
	return out, nil
}

func (r *Impl) ListCompletedResults(ctx context.Context, db bun.IDB, tournamentID string) ([]TeamResultRecord, []SpeakerResultRecord, error) {
	db = r.resolveDB(db)
	var teams []TeamResultRecord
	err := db.NewSelect().
		TableExpr("agg_team_results_of_debate AS atr").
		ColumnExpr("atr.debate_id, r.seq AS round_seq, atr.team_id, atr.points").
		Join("JOIN debates AS d ON d.id = atr.debate_id").
		Join("JOIN rounds AS r ON r.id = d.round_id").
		Where("r.tournament_id = ?", tournamentID).
		Where("r.kind = ?", tabtypes.RoundKindPreliminary).
		Where("r.completed = ?", true).
		OrderExpr("r.seq ASC, atr.debate_id ASC, atr.team_id ASC").
		Scan(ctx, &teams)
	if err != nil {
		return nil, nil, fmt.Errorf("tournamentdb.ListCompletedResults: teams: %w", err)
	}
	var speakers []SpeakerResultRecord
	err = db.NewSelect().
		TableExpr("agg_speaker_results_of_debate AS asr").
		ColumnExpr("asr.debate_id, r.seq AS round_seq, asr.team_id, asr.speaker_id, asr.position, asr.score, asr.reply").
		Join("JOIN debates AS d ON d.id = asr.debate_id").
		Join("JOIN rounds AS r ON r.id = d.round_id").
		Where("r.tournament_id = ?", tournamentID).
		Where("r.kind = ?", tabtypes.RoundKindPreliminary).
		Where("r.completed = ?", true).
		OrderExpr("r.seq ASC, asr.debate_id ASC, asr.team_id ASC, asr.position ASC").
		Scan(ctx, &speakers)
	if err != nil {
		return nil, nil, fmt.Errorf("tournamentdb.ListCompletedResults: speakers: %w", err)
	}
	return teams, speakers, nil
}

func (r *Impl) CountCompletedRounds(ctx context.Context, db bun.IDB, tournamentID string, kind tabtypes.RoundKind, beforeSeq int) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*Round)(nil)).
		Where("r.tournament_id = ?", tournamentID).
		Where("r.kind = ?", kind).
		Where("r.seq < ?", beforeSeq).
		Where("r.completed = ?", true).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tournamentdb.CountCompletedRounds: %w", err)
	}
	return n, nil
}
