package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

type VotingHandler struct {
	service ports.VotingService
}

func NewVotingHandler(service ports.VotingService) *VotingHandler {
	return &VotingHandler{
		service: service,
	}
}

type castVoteRequest struct {
	OptionID uuid.UUID `json:"option_id"`
}

type busRequest struct {
	RouteID     uuid.NullUUID `json:"route_id"`
	ScheduleID  uuid.NullUUID `json:"schedule_id"`
	BusID       uuid.UUID     `json:"bus_id"`
	Description string        `json:"description"`
	Reason      string        `json:"reason"`
	Date        time.Time     `json:"date"`
	EndDate     time.Time     `json:"end_date"`
}

type approveRequest struct {
	BusID uuid.UUID `json:"bus_id"`
}

type busRequestResponse struct {
	Topic *domain.Topic `json:"topic"`
	ports.MutationResult
}

func (h *VotingHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	dash, err := h.service.Dashboard(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	topicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, domain.ErrInvalidTopicID)
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, _ := UserFromContext(r.Context())
	result, err := h.service.CastVote(r.Context(), user, topicID, req.OptionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *VotingHandler) RequestNewBus(w http.ResponseWriter, r *http.Request) {
	var req busRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := ports.BusRequestInput{
		RouteID:     req.RouteID,
		ScheduleID:  req.ScheduleID,
		BusID:       req.BusID,
		Description: req.Description,
		Reason:      req.Reason,
		Date:        req.Date,
		EndDate:     req.EndDate,
	}

	user, _ := UserFromContext(r.Context())
	topic, result, err := h.service.RequestNewBus(r.Context(), user, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, busRequestResponse{Topic: topic, MutationResult: result})
}

func (h *VotingHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	topicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, domain.ErrInvalidTopicID)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.ApproveRequest(r.Context(), topicID, req.BusID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *VotingHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	topicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, domain.ErrInvalidTopicID)
		return
	}

	result, err := h.service.RejectRequest(r.Context(), topicID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
