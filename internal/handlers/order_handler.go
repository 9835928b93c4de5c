package handlers

import (
	"errors"
	"net/http"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/flash"
	"storefront-admin/internal/middleware"
	"storefront-admin/internal/models"
	"storefront-admin/internal/services"
	"storefront-admin/internal/session"
	"storefront-admin/internal/validation"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const tokenRequiredMessage = "Admin token required to fetch orders"

type ordersData struct {
	Orders   []models.Order
	Statuses []models.OrderStatus
}

type OrderHandler struct {
	orderService *services.OrderService
	view         *Renderer
	flash        *flash.Codec
	logger       zerolog.Logger
}

func NewOrderHandler(orderService *services.OrderService, view *Renderer, codec *flash.Codec, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		view:         view,
		flash:        codec,
		logger:       logger,
	}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	notice := h.flash.Pop(w, r)
	orders, err := h.orderService.List(r.Context(), store)
	if err != nil {
		if h.sessionLost(w, r, store, err) {
			return
		}
		notice = errorNotice(userMessage(err, "Failed to fetch orders"))
	}

	h.render(w, orders, notice)
}

// UpdateStatus changes the status of the order in the path and shows the
// refetched order list.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, h.flash, h.logger, "/orders", flash.Flash{Kind: flash.KindError, Message: "Invalid form submission"})
		return
	}

	orderID := mux.Vars(r)["id"]
	status := models.OrderStatus(r.PostFormValue("status"))

	orders, err := h.orderService.UpdateStatus(r.Context(), store, orderID, status)
	if err == nil {
		h.render(w, orders, &flash.Flash{Kind: flash.KindSuccess, Message: "Order status updated"})
		return
	}
	if h.sessionLost(w, r, store, err) {
		return
	}

	var refetchErr *services.RefetchError
	if errors.As(err, &refetchErr) {
		h.render(w, nil, &flash.Flash{Kind: flash.KindWarning, Message: "Order status updated, but the orders could not be reloaded: " + userMessage(err, "Failed to fetch orders")})
		return
	}

	var fieldErrs validation.FieldErrors
	msg := userMessage(err, "Failed to update order status")
	if errors.As(err, &fieldErrs) {
		msg = fieldErrs["status"]
	}
	redirectWithFlash(w, r, h.flash, h.logger, "/orders", flash.Flash{Kind: flash.KindError, Message: msg})
}

func (h *OrderHandler) sessionLost(w http.ResponseWriter, r *http.Request, store *session.Store, err error) bool {
	notice := sessionExpiredMessage
	if errors.Is(err, backend.ErrMissingCredentials) {
		notice = tokenRequiredMessage
	}
	return sessionLost(w, r, store, err, h.flash, h.logger, notice)
}

func (h *OrderHandler) render(w http.ResponseWriter, orders []models.Order, notice *flash.Flash) {
	h.view.Render(w, http.StatusOK, "orders", Page{
		Title:         "Orders",
		Active:        "orders",
		Authenticated: true,
		Notice:        notice,
		Data: ordersData{
			Orders:   orders,
			Statuses: models.OrderStatuses,
		},
	})
}
