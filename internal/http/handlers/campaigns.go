package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"crowdfund/internal/domain"
	"crowdfund/internal/ledger"
)

type createCampaignRequest struct {
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalAmount  int64  `json:"goal_amount"`
}

func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ownerID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Ledger.CreateCampaign(r.Context(), ownerID, ledger.CreateCampaignInput{
		Title:       req.Title,
		Description: req.Description,
		GoalAmount:  req.GoalAmount,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, viewCampaign(c))
}

// CampaignsList supports ?status=, ?owner=, ?limit= and ?offset=.
func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.CampaignFilter
	if v := q.Get("status"); v != "" {
		status := domain.CampaignStatus(v)
		filter.Status = &status
	}
	var err error
	if v := q.Get("owner"); v != "" {
		owner, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			a.fail(w, r, fmt.Errorf("invalid owner: %w", domain.ErrValidation))
			return
		}
		filter.UserID = &owner
	}
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		a.fail(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Ledger.ListCampaigns(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": viewList(items, viewCampaign)})
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", v, domain.ErrValidation)
	}
	return n, nil
}

// CampaignsGet returns the campaign with its available balance.
func (a *App) CampaignsGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Ledger.GetCampaign(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	available, err := a.Ledger.AvailableBalance(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	view := viewCampaign(c)
	view.Available = &available
	a.json(w, http.StatusOK, view)
}

type reviewRequest struct {
	UserID  int64 `json:"user_id"`
	Approve *bool `json:"approve"`
}

func (a *App) CampaignsReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Approve == nil {
		a.fail(w, r, fmt.Errorf("approve is required: %w", domain.ErrValidation))
		return
	}
	adminID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Ledger.ReviewCampaign(r.Context(), adminID, id, *req.Approve)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewCampaign(c))
}

type activeRequest struct {
	UserID int64 `json:"user_id"`
	Active *bool `json:"active"`
}

func (a *App) CampaignsSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req activeRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Active == nil {
		a.fail(w, r, fmt.Errorf("active is required: %w", domain.ErrValidation))
		return
	}
	actorID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Ledger.SetCampaignActive(r.Context(), actorID, id, *req.Active)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewCampaign(c))
}

type actorRequest struct {
	UserID int64 `json:"user_id"`
}

func (a *App) CampaignsComplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req actorRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	adminID, err := a.actor(r, req.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Ledger.CompleteCampaign(r.Context(), adminID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewCampaign(c))
}

func (a *App) CampaignsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	actorID, err := a.actorFromQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Ledger.DeleteCampaign(r.Context(), actorID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
