package domain

// MilestoneVote is a single user's approval decision on a milestone. At most
// one exists per (UserID, MilestoneID).
type MilestoneVote struct {
	ID          int64
	Approved    bool
	UserID      int64
	MilestoneID int64
}
