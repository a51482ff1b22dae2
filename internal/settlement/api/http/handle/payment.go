package handle

import (
	"net/http"

	"wheres-my-tab/internal/settlement/app/services"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/logger"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	mylog          logger.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, mylog logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		mylog:          mylog,
	}
}

func (ph *PaymentHandler) Add() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.PaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			ph.mylog.Action("parse_failed").Error("Failed to parse payment", err)
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		result, err := ph.paymentService.Add(ctx, id, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusCreated, result)
	}
}

func (ph *PaymentHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		payments, err := ph.paymentService.List(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, payments)
	}
}

func (ph *PaymentHandler) Candidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var sel dto.Selection
		if err := decodeJSON(r, &sel); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		candidate, err := ph.paymentService.Candidate(ctx, id, sel)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, candidate)
	}
}

func (ph *PaymentHandler) Receipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		receipt, err := ph.paymentService.Receipt(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, receipt)
	}
}
