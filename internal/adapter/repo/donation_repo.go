package repo

import (
	"context"

	"crowdfund/internal/domain"
	"crowdfund/internal/sqlinline"
)

// CreateDonation inserts a donation row and fills in its id and timestamp.
func (t *ledgerTx) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	row := t.sql.QueryRow(ctx, sqlinline.QInsertDonation, donation.Amount, donation.UserID, donation.CampaignID)
	if err := row.Scan(&donation.ID, &donation.Timestamp); err != nil {
		return mapPGError(err)
	}
	return nil
}

// ListDonations returns a campaign's donations in insertion order.
func (t *ledgerTx) ListDonations(ctx context.Context, campaignID int64) ([]domain.Donation, error) {
	rows, err := t.sql.Query(ctx, sqlinline.QListDonationsByCampaign, campaignID)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.Amount, &d.Timestamp, &d.UserID, &d.CampaignID); err != nil {
			return nil, mapPGError(err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return items, nil
}

// HasDonated reports whether the user donated to the campaign at least once.
func (t *ledgerTx) HasDonated(ctx context.Context, userID, campaignID int64) (bool, error) {
	var ok bool
	if err := t.sql.QueryRow(ctx, sqlinline.QHasDonated, userID, campaignID).Scan(&ok); err != nil {
		return false, mapPGError(err)
	}
	return ok, nil
}
