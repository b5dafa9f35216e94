package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/fitarena-system/middleware"
	"github.com/Dosada05/fitarena-system/services"
)

type InvitationHandler struct {
	invitationService services.InvitationService
}

func NewInvitationHandler(is services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: is,
	}
}

// InviteHandler обрабатывает POST /competitions/{competitionID}/invitations.
// Приглашать может только создатель и только в активное соревнование.
func (h *InvitationHandler) InviteHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to invite")
		return
	}

	var input struct {
		InviteeIDs []int `json:"invitee_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.InviteeIDs) == 0 {
		badRequestResponse(w, r, errors.New("invitee_ids must not be empty"))
		return
	}

	created, err := h.invitationService.Invite(r.Context(), competitionID, currentUserID, input.InviteeIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"created": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// InboxHandler обрабатывает GET /invitations: ожидающие приглашения
// текущего пользователя.
func (h *InvitationHandler) InboxHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	invitations, err := h.invitationService.ListPending(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitations": invitations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptHandler обрабатывает POST /invitations/{invitationID}/accept.
// Для buy_in соревнования без charge_ref ответ вернёт requires_buy_in и
// сумму взноса, а приглашение останется в ожидании.
func (h *InvitationHandler) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	invitationID, err := getIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to accept invitation")
		return
	}

	var input struct {
		ChargeRef *string `json:"charge_ref"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.invitationService.Accept(r.Context(), invitationID, currentUserID, input.ChargeRef)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinWithoutPoolHandler обрабатывает POST /invitations/{invitationID}/join-without-pool.
// Участие без взноса: очки идут в таблицу, но на выплаты участник не претендует.
func (h *InvitationHandler) JoinWithoutPoolHandler(w http.ResponseWriter, r *http.Request) {
	invitationID, err := getIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to join competition")
		return
	}

	if err := h.invitationService.JoinWithoutPool(r.Context(), invitationID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeclineHandler обрабатывает POST /invitations/{invitationID}/decline
func (h *InvitationHandler) DeclineHandler(w http.ResponseWriter, r *http.Request) {
	invitationID, err := getIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to decline invitation")
		return
	}

	if err := h.invitationService.Decline(r.Context(), invitationID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
