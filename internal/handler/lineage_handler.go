package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"lexisync/internal/domain"
	"lexisync/internal/service"
	"lexisync/pkg/response"
)

type LineageHandler struct {
	session   *service.Session
	validator *validator.Validate
}

func NewLineageHandler(session *service.Session) *LineageHandler {
	return &LineageHandler{
		session:   session,
		validator: validator.New(),
	}
}

func (h *LineageHandler) Fork(w http.ResponseWriter, r *http.Request) {
	lineageID, err := h.session.Fork()
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, map[string]interface{}{
		"lineage_id":     lineageID,
		"classification": h.session.Classify(),
	})
}

func (h *LineageHandler) PromoteBranch(w http.ResponseWriter, r *http.Request) {
	var req domain.PromoteBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.session.PromoteAsBranch(req.ParentLineage); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, map[string]string{"parent_lineage": req.ParentLineage})
}

func (h *LineageHandler) ContributorOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.session.ContributorOptions()
	if err != nil {
		response.Conflict(w, err.Error())
		return
	}

	response.Success(w, options)
}
