package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"crowdfund/internal/domain"
	"crowdfund/internal/sqlinline"
)

// CreateMilestone inserts a PENDING milestone.
func (t *ledgerTx) CreateMilestone(ctx context.Context, m *domain.Milestone) error {
	row := t.sql.QueryRow(ctx, sqlinline.QInsertMilestone, m.Title, m.Description, m.Amount, m.CampaignID)
	if err := row.Scan(&m.ID, &m.Timestamp); err != nil {
		return mapPGError(err)
	}
	m.Status = domain.MilestoneStatusPending
	return nil
}

func (t *ledgerTx) GetMilestone(ctx context.Context, id int64) (*domain.Milestone, error) {
	m, err := scanMilestone(t.sql.QueryRow(ctx, sqlinline.QSelectMilestoneByID, id))
	if err != nil {
		return nil, notFound(err, "milestone", id)
	}
	return m, nil
}

func (t *ledgerTx) GetMilestoneForUpdate(ctx context.Context, id int64) (*domain.Milestone, error) {
	m, err := scanMilestone(t.sql.QueryRow(ctx, sqlinline.QSelectMilestoneForUpdate, id))
	if err != nil {
		return nil, notFound(err, "milestone", id)
	}
	return m, nil
}

func (t *ledgerTx) ListMilestones(ctx context.Context, campaignID int64) ([]domain.Milestone, error) {
	rows, err := t.sql.Query(ctx, sqlinline.QListMilestonesByCampaign, campaignID)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var items []domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, mapPGError(err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return items, nil
}

func (t *ledgerTx) ListMilestoneIDsByStatus(ctx context.Context, status domain.MilestoneStatus, afterID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}
	return t.ids(ctx, sqlinline.QListMilestoneIDsByStatus, string(status), afterID, limit)
}

func (t *ledgerTx) UpdateMilestoneStatus(ctx context.Context, id int64, status domain.MilestoneStatus) error {
	return t.execOne(ctx, sqlinline.QUpdateMilestoneStatus, "milestone", id, string(status))
}

func (t *ledgerTx) SetMilestoneProof(ctx context.Context, id int64, proofURL string) error {
	return t.execOne(ctx, sqlinline.QSetMilestoneProof, "milestone", id, proofURL)
}

func (t *ledgerTx) CountMilestoneDependents(ctx context.Context, id int64) (int64, error) {
	return t.count(ctx, sqlinline.QCountMilestoneDependents, id)
}

func (t *ledgerTx) DeleteMilestone(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, sqlinline.QDeleteMilestone, "milestone", id)
}

func (t *ledgerTx) ListUnmarkedPaidMilestones(ctx context.Context) ([]int64, error) {
	return t.ids(ctx, sqlinline.QListUnmarkedPaidMilestones)
}

func scanMilestone(row pgx.Row) (*domain.Milestone, error) {
	var (
		m      domain.Milestone
		status string
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Amount, &m.ProofURL,
		&status, &m.Timestamp, &m.CampaignID); err != nil {
		return nil, err
	}
	m.Status = domain.MilestoneStatus(status)
	return &m, nil
}

func (t *ledgerTx) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := t.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapPGError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return ids, nil
}
