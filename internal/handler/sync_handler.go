package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"lexisync/internal/domain"
	"lexisync/internal/remote"
	"lexisync/internal/service"
	"lexisync/pkg/response"
)

type SyncHandler struct {
	session   *service.Session
	validator *validator.Validate
}

func NewSyncHandler(session *service.Session) *SyncHandler {
	return &SyncHandler{
		session:   session,
		validator: validator.New(),
	}
}

func (h *SyncHandler) GetState(w http.ResponseWriter, r *http.Request) {
	profile := h.session.Profile()

	response.Success(w, &domain.StateResponse{
		Classification: h.session.Classify(),
		ChangeCount:    h.session.LocalChangeCount(),
		Role:           profile.Remote.Role(),
		Remote:         profile.Remote,
		LineageID:      profile.LineageID,
		WorkingHash:    h.session.WorkingDigest(),
	})
}

func (h *SyncHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	keys := h.session.ChangedKeys()
	response.Success(w, &domain.ChangesResponse{
		Keys:  keys,
		Count: len(keys),
	})
}

func (h *SyncHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.session.RefreshRemote(r.Context())
	if err != nil {
		writeRemoteError(w, err)
		return
	}

	response.Success(w, &domain.SyncResponse{
		Remote:         state,
		Classification: h.session.Classify(),
	})
}

func (h *SyncHandler) Upload(w http.ResponseWriter, r *http.Request) {
	state, err := h.session.Upload(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			response.Forbidden(w, err.Error())
			return
		}
		writeRemoteError(w, err)
		return
	}

	response.Success(w, &domain.SyncResponse{
		Remote:         state,
		Classification: h.session.Classify(),
	})
}

func (h *SyncHandler) Download(w http.ResponseWriter, r *http.Request) {
	state, err := h.session.Download(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRemoteMissing) {
			response.NotFound(w, err.Error())
			return
		}
		writeRemoteError(w, err)
		return
	}

	response.Success(w, &domain.SyncResponse{
		Remote:         state,
		Classification: h.session.Classify(),
	})
}

func (h *SyncHandler) StartMerge(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.StartMerge(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRemoteMissing) {
			response.NotFound(w, err.Error())
			return
		}
		writeRemoteError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *SyncHandler) GetMerge(w http.ResponseWriter, r *http.Request) {
	result := h.session.PendingMerge()
	if result == nil {
		response.NotFound(w, service.ErrNoPendingMerge.Error())
		return
	}
	response.Success(w, result)
}

func (h *SyncHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req domain.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.session.Resolve(req.Resolutions)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPendingMerge):
			response.NotFound(w, err.Error())
		case errors.Is(err, service.ErrResolveInFlight):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.Success(w, result)
}

func writeRemoteError(w http.ResponseWriter, err error) {
	var rejected *remote.RejectedError
	switch {
	case errors.As(err, &rejected):
		response.Error(w, http.StatusBadGateway, rejected.Message)
	case remote.IsTransient(err):
		response.BadGateway(w, "remote store unreachable, try again")
	default:
		response.InternalError(w, err.Error())
	}
}
