package handle

import (
	"net/http"

	"wheres-my-tab/internal/settlement/app/services"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/logger"
)

type OrderHandler struct {
	orderService *services.OrderService
	mylog        logger.Logger
}

func NewOrderHandler(orderService *services.OrderService, mylog logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		mylog:        mylog,
	}
}

func (oh *OrderHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.CreateOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			oh.mylog.Action("parse_failed").Error("Failed to parse order", err)
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		oh.mylog.Action("received").Debug("Received order", "session_id", sessionID, "number_of_items", len(req.Items))

		ctx, cancel := requestContext(r)
		defer cancel()

		order, err := oh.orderService.Create(ctx, sessionID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusCreated, order)
	}
}

func (oh *OrderHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "order_id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.ItemRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		item, err := oh.orderService.AddItem(ctx, orderID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusCreated, item)
	}
}

func (oh *OrderHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "item_id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.UpdateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		item, err := oh.orderService.UpdateItem(ctx, itemID, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, item)
	}
}

func (oh *OrderHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "item_id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		if err := oh.orderService.RemoveItem(ctx, itemID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
