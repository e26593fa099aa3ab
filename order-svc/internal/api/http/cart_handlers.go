package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quiosco/order-svc/internal/cart"
	"quiosco/order-svc/internal/domain"
	"quiosco/order-svc/internal/service"

	"github.com/gorilla/mux"
)

const (
	msgInvalidSession  = "Sesión de carrito inválida"
	msgProductNotFound = "Producto no encontrado"
	msgCartError       = "Error al actualizar el carrito"
)

func (h *Handler) registerCartRoutes(r *mux.Router) {
	const prefix = "/api/carts/{session}"
	r.HandleFunc(prefix, h.getCart).Methods("GET")
	r.HandleFunc(prefix, h.clearCart).Methods("DELETE")
	r.HandleFunc(prefix+"/items", h.addCartItem).Methods("POST")
	r.HandleFunc(prefix+"/items/{productId:[0-9]+}/increase", h.cartStep(service.CartServiceInterface.Increase)).Methods("POST")
	r.HandleFunc(prefix+"/items/{productId:[0-9]+}/decrease", h.cartStep(service.CartServiceInterface.Decrease)).Methods("POST")
	r.HandleFunc(prefix+"/items/{productId:[0-9]+}", h.cartStep(service.CartServiceInterface.Remove)).Methods("DELETE")
	r.HandleFunc(prefix+"/checkout", h.checkoutCart).Methods("POST")
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Get(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), mux.Vars(r)["session"]); err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart.New())
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID int `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ProductID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidBody})
		return
	}

	c, err := h.Carts.AddProduct(r.Context(), mux.Vars(r)["session"], payload.ProductID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type cartOp func(svc service.CartServiceInterface, ctx context.Context, session string, productID int) (*cart.Cart, error)

func (h *Handler) cartStep(op cartOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, _ := strconv.Atoi(mux.Vars(r)["productId"])
		c, err := op(h.Carts, r.Context(), mux.Vars(r)["session"], productID)
		if err != nil {
			writeCartError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeOrderError(w, &service.OrderError{
			Kind:   service.KindValidation,
			Issues: []domain.Issue{{Message: msgInvalidBody}},
		})
		return
	}

	orderID, err := h.Carts.Checkout(r.Context(), mux.Vars(r)["session"], payload.Name, payload.Phone)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			writeCartError(w, err)
			return
		}
		writeOrderError(w, err)
		return
	}
	writeOrderCreated(w, orderID)
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSession):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidSession})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgProductNotFound})
	default:
		log.Printf("ERROR: cart operation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgCartError})
	}
}
