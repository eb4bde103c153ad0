package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"crowdfund/internal/domain"
	"crowdfund/internal/ledger"
	"crowdfund/internal/storage"
)

type createMilestoneRequest struct {
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Amount      int64   `json:"amount"`
}

func (a *App) MilestonesCreate(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req createMilestoneRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ownerID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Ledger.CreateMilestone(r.Context(), ownerID, campaignID, ledger.CreateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, viewMilestone(m))
}

func (a *App) MilestonesList(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Ledger.ListMilestones(r.Context(), campaignID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": viewList(items, viewMilestone)})
}

func (a *App) MilestonesGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Ledger.GetMilestone(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewMilestone(m))
}

// MilestonesUploadProof stores the raw request body as the milestone's proof
// of completion. The actor comes from the token or ?user_id=.
func (a *App) MilestonesUploadProof(w http.ResponseWriter, r *http.Request) {
	if a.Proofs == nil {
		a.error(w, http.StatusNotFound, "not_found", "proof uploads are disabled")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ownerID, err := a.actorFromQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Ledger.CanManageMilestone(r.Context(), ownerID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, storage.MaxProofSize+1))
	if err != nil {
		a.fail(w, r, fmt.Errorf("read upload: %w", domain.ErrValidation))
		return
	}
	if len(data) == 0 {
		a.fail(w, r, fmt.Errorf("empty upload: %w", domain.ErrValidation))
		return
	}
	url, err := a.Proofs.SaveProof(r.Context(), id, r.Header.Get("Content-Type"), data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Ledger.AttachProof(r.Context(), ownerID, id, url)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewMilestone(m))
}

type submitMilestoneRequest struct {
	UserID   int64  `json:"user_id"`
	ProofURL string `json:"proof_url"`
}

func (a *App) MilestonesSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req submitMilestoneRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ownerID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Ledger.SubmitMilestone(r.Context(), ownerID, id, req.ProofURL)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewMilestone(m))
}

type castVoteRequest struct {
	UserID   int64 `json:"user_id"`
	Approved *bool `json:"approved"`
}

func (a *App) VotesCast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req castVoteRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Approved == nil {
		a.fail(w, r, fmt.Errorf("approved is required: %w", domain.ErrValidation))
		return
	}
	voterID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	v, err := a.Ledger.CastVote(r.Context(), voterID, id, *req.Approved)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewVote(v))
}

func (a *App) VotesList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	votes, tally, err := a.Ledger.ListVotes(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"items": viewList(votes, viewVote),
		"tally": viewTally(tally, a.Ledger.Policy()),
	})
}

// MilestonesFinalize decides a SUBMITTED milestone. Repeating it on a decided
// milestone returns the stored outcome.
func (a *App) MilestonesFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := a.managedMilestone(w, r)
	if !ok {
		return
	}
	res, err := a.Ledger.FinalizeMilestone(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"milestone_id": id,
		"status":       string(res.Status),
		"tally":        viewTally(res.Tally, a.Ledger.Policy()),
	})
}

func (a *App) MilestonesPayout(w http.ResponseWriter, r *http.Request) {
	id, ok := a.managedMilestone(w, r)
	if !ok {
		return
	}
	t, err := a.Ledger.PayoutMilestone(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, viewTransaction(t))
}

func (a *App) MilestonesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ownerID, err := a.actorFromQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Ledger.DeleteMilestone(r.Context(), ownerID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// managedMilestone resolves the path milestone and checks the actor may
// manage it. Bodies are optional here.
func (a *App) managedMilestone(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return 0, false
	}
	var req actorRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			a.fail(w, r, err)
			return 0, false
		}
	}
	if req.UserID == 0 {
		if v := r.URL.Query().Get("user_id"); v != "" {
			if req.UserID, err = strconv.ParseInt(v, 10, 64); err != nil {
				a.fail(w, r, fmt.Errorf("invalid user_id: %w", domain.ErrValidation))
				return 0, false
			}
		}
	}
	actorID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return 0, false
	}
	if err := a.Ledger.CanManageMilestone(r.Context(), actorID, id); err != nil {
		a.fail(w, r, err)
		return 0, false
	}
	return id, true
}
