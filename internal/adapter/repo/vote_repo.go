package repo

import (
	"context"

	"crowdfund/internal/domain"
	"crowdfund/internal/sqlinline"
)

// UpsertVote relies on the ("userId","milestoneId") unique index so a repeat
// vote overwrites the stored flag instead of adding a row.
func (t *ledgerTx) UpsertVote(ctx context.Context, vote *domain.MilestoneVote) error {
	row := t.sql.QueryRow(ctx, sqlinline.QUpsertVote, vote.Approved, vote.UserID, vote.MilestoneID)
	if err := row.Scan(&vote.ID); err != nil {
		return mapPGError(err)
	}
	return nil
}

func (t *ledgerTx) ListVotes(ctx context.Context, milestoneID int64) ([]domain.MilestoneVote, error) {
	rows, err := t.sql.Query(ctx, sqlinline.QListVotesByMilestone, milestoneID)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var votes []domain.MilestoneVote
	for rows.Next() {
		var v domain.MilestoneVote
		if err := rows.Scan(&v.ID, &v.Approved, &v.UserID, &v.MilestoneID); err != nil {
			return nil, mapPGError(err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return votes, nil
}

func (t *ledgerTx) TallyVotes(ctx context.Context, milestoneID int64) (domain.VoteTally, error) {
	var approve, reject int64
	if err := t.sql.QueryRow(ctx, sqlinline.QTallyVotes, milestoneID).Scan(&approve, &reject); err != nil {
		return domain.VoteTally{}, mapPGError(err)
	}
	return domain.VoteTally{Approve: int(approve), Reject: int(reject)}, nil
}
