package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"lexisync/internal/domain"
	"lexisync/internal/service"
	"lexisync/pkg/response"
)

// DictionaryHandler is the working-copy edit surface: the host-application
// capture path and the UI editor both land here.
type DictionaryHandler struct {
	session   *service.Session
	validator *validator.Validate
}

func NewDictionaryHandler(session *service.Session) *DictionaryHandler {
	return &DictionaryHandler{
		session:   session,
		validator: validator.New(),
	}
}

func (h *DictionaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.session.Dictionary())
}

func (h *DictionaryHandler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		response.BadRequest(w, "Missing entry key")
		return
	}

	var req domain.UpsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tag := req.Tag
	if tag == "" {
		tag = domain.TagUnknown
	}

	if err := h.session.UpsertEntry(key, domain.TranslationEntry{Text: req.Text, Tag: tag}); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, map[string]int{"change_count": h.session.LocalChangeCount()})
}

func (h *DictionaryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		response.BadRequest(w, "Missing entry key")
		return
	}

	if err := h.session.DeleteEntry(key); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, map[string]int{"change_count": h.session.LocalChangeCount()})
}
