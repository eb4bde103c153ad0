package domain

import "time"

// Donation represents a donor contribution to a campaign. Immutable once created.
type Donation struct {
	ID         int64
	Amount     int64
	Timestamp  time.Time
	UserID     int64
	CampaignID int64
}
