package handlers

import (
	"net/http"
)

type donationRequest struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req donationRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	donorID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Ledger.RecordDonation(r.Context(), donorID, campaignID, req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"donation":      viewDonation(&res.Donation),
		"transaction":   viewTransaction(&res.Transaction),
		"amount_raised": res.AmountRaised,
		"goal_reached":  res.GoalReached,
	})
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Ledger.ListDonations(r.Context(), campaignID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": viewList(items, viewDonation)})
}

func (a *App) TransactionsList(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Ledger.ListTransactions(r.Context(), campaignID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": viewList(items, viewTransaction)})
}
