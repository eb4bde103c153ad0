package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crowdfund/internal/domain"
	"crowdfund/internal/sqlinline"
)

// CreateCampaign inserts a PENDING, active campaign with nothing raised.
func (t *ledgerTx) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	row := t.sql.QueryRow(ctx, sqlinline.QInsertCampaign,
		campaign.Title, campaign.Description, campaign.GoalAmount, campaign.UserID)
	created, err := scanCampaign(row)
	if err != nil {
		return mapPGError(err)
	}
	*campaign = *created
	return nil
}

// GetCampaign fetches a campaign by id.
func (t *ledgerTx) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := scanCampaign(t.sql.QueryRow(ctx, sqlinline.QSelectCampaignByID, id))
	if err != nil {
		return nil, notFound(err, "campaign", id)
	}
	return c, nil
}

// GetCampaignForUpdate fetches and row-locks a campaign.
func (t *ledgerTx) GetCampaignForUpdate(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := scanCampaign(t.sql.QueryRow(ctx, sqlinline.QSelectCampaignForUpdate, id))
	if err != nil {
		return nil, notFound(err, "campaign", id)
	}
	return c, nil
}

// ListCampaigns returns campaigns newest first.
func (t *ledgerTx) ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := t.sql.Query(ctx, sqlinline.QListCampaigns, status, filter.UserID, limit, filter.Offset)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var items []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, mapPGError(err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return items, nil
}

// IncrementAmountRaised adds delta in place and returns the new total.
func (t *ledgerTx) IncrementAmountRaised(ctx context.Context, id int64, delta int64) (int64, error) {
	var total int64
	if err := t.sql.QueryRow(ctx, sqlinline.QIncrementAmountRaised, id, delta).Scan(&total); err != nil {
		return 0, notFound(err, "campaign", id)
	}
	return total, nil
}

// SetAmountRaised overwrites the counter; used by reconciliation only.
func (t *ledgerTx) SetAmountRaised(ctx context.Context, id int64, amount int64) error {
	return t.execOne(ctx, sqlinline.QSetAmountRaised, "campaign", id, amount)
}

// UpdateCampaignStatus persists a status already validated by the caller.
func (t *ledgerTx) UpdateCampaignStatus(ctx context.Context, id int64, status domain.CampaignStatus) error {
	return t.execOne(ctx, sqlinline.QUpdateCampaignStatus, "campaign", id, string(status))
}

// SetCampaignActive toggles the isActive flag.
func (t *ledgerTx) SetCampaignActive(ctx context.Context, id int64, active bool) error {
	return t.execOne(ctx, sqlinline.QSetCampaignActive, "campaign", id, active)
}

// CountCampaignDependents counts donations, milestones and transactions of a campaign.
func (t *ledgerTx) CountCampaignDependents(ctx context.Context, id int64) (int64, error) {
	return t.count(ctx, sqlinline.QCountCampaignDependents, id)
}

// DeleteCampaign removes a campaign without dependents.
func (t *ledgerTx) DeleteCampaign(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, sqlinline.QDeleteCampaign, "campaign", id)
}

// ListCampaignDrift returns campaigns whose counter disagrees with their
// COMPLETED DONATION transactions.
func (t *ledgerTx) ListCampaignDrift(ctx context.Context) ([]domain.CampaignDrift, error) {
	rows, err := t.sql.Query(ctx, sqlinline.QListCampaignDrift)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var drift []domain.CampaignDrift
	for rows.Next() {
		var d domain.CampaignDrift
		if err := rows.Scan(&d.CampaignID, &d.Stored, &d.Computed); err != nil {
			return nil, mapPGError(err)
		}
		drift = append(drift, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return drift, nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c      domain.Campaign
		status string
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.IsActive, &status,
		&c.CreatedAt, &c.GoalAmount, &c.AmountRaised, &c.UserID); err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatus(status)
	return &c, nil
}

func (t *ledgerTx) execOne(ctx context.Context, query, entity string, id int64, args ...any) error {
	tag, err := t.sql.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
