package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"quiosco/order-svc/internal/domain"
	"quiosco/order-svc/internal/service"

	"github.com/gorilla/mux"
)

const (
	msgCategoriesError   = "Error fetching categories"
	msgProductsError     = "Error fetching products"
	msgProductCreated    = "Producto creado exitosamente"
	msgMissingFields     = "Todos los campos son requeridos"
	msgInvalidCategory   = "ID de categoría inválido"
	msgInvalidPrice      = "Precio inválido"
	msgCategoryNotFound  = "La categoría seleccionada no existe"
	msgDuplicateProduct  = "Ya existe un producto con ese nombre"
	msgProductInternal   = "Error interno del servidor al crear el producto"
	msgInvalidBody       = "Cuerpo de la solicitud inválido"
	msgNoFile            = "No se proporcionó ningún archivo"
	msgFileTooLarge      = "El archivo es demasiado grande"
	msgFileType          = "Tipo de archivo no permitido"
	msgUploadInternal    = "Error interno del servidor al subir la imagen"
	msgOrderNotFound     = "Orden no encontrada"
	msgOrdersError       = "Error al obtener las órdenes"
	msgQRCodeUnavailable = "Código QR no disponible"

	maxUploadSize = 10 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Handler struct {
	Catalog service.CatalogServiceInterface
	Orders  service.OrderServiceInterface
	Carts   service.CartServiceInterface
}

func NewHandler(catalog service.CatalogServiceInterface, orders service.OrderServiceInterface, carts service.CartServiceInterface) *Handler {
	return &Handler{
		Catalog: catalog,
		Orders:  orders,
		Carts:   carts,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/categories", h.getCategories).Methods("GET")
	r.HandleFunc("/api/categories/{slug}/products", h.getCategoryProducts).Methods("GET")

	r.HandleFunc("/api/products", h.getProducts).Methods("GET")
	r.HandleFunc("/api/products", h.createProduct).Methods("POST")
	r.HandleFunc("/api/products", h.productsPreflight).Methods("OPTIONS")
	r.HandleFunc("/api/upload", h.uploadImage).Methods("POST")

	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders", h.getOrders).Methods("GET")
	r.HandleFunc("/api/orders/{id:[0-9]+}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id:[0-9]+}/qrcode", h.getOrderQRCode).Methods("GET")
	r.HandleFunc("/api/orders/{id:[0-9]+}/ready", h.markOrderReady).Methods("POST")

	h.registerCartRoutes(r)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "order-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.Categories(r.Context())
	if err != nil {
		log.Printf("ERROR: listing categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgCategoriesError})
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) getCategoryProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ProductsByCategory(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		log.Printf("ERROR: listing products of %s: %v", mux.Vars(r)["slug"], err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgProductsError})
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) getProducts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.Catalog.ListProducts(r.Context(), page, r.URL.Query().Get("search"))
	if err != nil {
		log.Printf("ERROR: listing products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgProductsError})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	var input domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": msgInvalidBody})
		return
	}

	product, err := h.Catalog.CreateProduct(r.Context(), input)
	if err != nil {
		status, message := http.StatusBadRequest, ""
		switch {
		case errors.Is(err, service.ErrMissingFields):
			message = msgMissingFields
		case errors.Is(err, service.ErrInvalidCategory):
			message = msgInvalidCategory
		case errors.Is(err, service.ErrInvalidPrice):
			message = msgInvalidPrice
		case errors.Is(err, service.ErrCategoryNotFound):
			message = msgCategoryNotFound
		case errors.Is(err, service.ErrDuplicateProduct):
			message = msgDuplicateProduct
		default:
			log.Printf("ERROR: creating product %q: %v", input.Name, err)
			status, message = http.StatusInternalServerError, msgProductInternal
		}
		writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
		"message": msgProductCreated,
	})
}

func (h *Handler) productsPreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": msgFileTooLarge})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": msgNoFile})
		return
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if !allowedImageTypes[contentType] {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": msgFileType})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": msgUploadInternal})
		return
	}

	url, err := h.Catalog.UploadImage(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		if errors.Is(err, service.ErrNoFile) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": msgNoFile})
			return
		}
		log.Printf("ERROR: uploading %s: %v", header.Filename, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": msgUploadInternal})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "url": url})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeOrderError(w, &service.OrderError{
			Kind:   service.KindValidation,
			Issues: []domain.Issue{{Message: msgInvalidBody}},
		})
		return
	}

	orderID, err := h.Orders.Create(r.Context(), raw)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeOrderCreated(w, orderID)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	ready := r.URL.Query().Get("status") == "ready"
	orders, err := h.Orders.List(r.Context(), ready)
	if err != nil {
		log.Printf("ERROR: listing orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgOrdersError})
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	order, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": msgOrderNotFound})
			return
		}
		log.Printf("ERROR: loading order %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgOrdersError})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getOrderQRCode(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	png, err := h.Orders.GetQRCode(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": msgOrderNotFound})
			return
		}
		log.Printf("ERROR: loading QR code of order %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgQRCodeUnavailable})
		return
	}
	if len(png) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgQRCodeUnavailable})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}

func (h *Handler) markOrderReady(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.Orders.MarkReady(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   service.MsgOrderNotUpdated,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func writeOrderCreated(w http.ResponseWriter, orderID int) {
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": service.MsgOrderCreated,
		"orderId": orderID,
	})
}

// writeOrderError renders a failed checkout. Only *service.OrderError carries
// client-facing text; anything else is reported as an internal failure.
func writeOrderError(w http.ResponseWriter, err error) {
	var orderErr *service.OrderError
	if !errors.As(err, &orderErr) {
		log.Printf("ERROR: unexpected order failure: %v", err)
		orderErr = &service.OrderError{
			Kind:   service.KindInternal,
			Issues: []domain.Issue{{Message: service.MsgInternal}},
		}
	}

	status := http.StatusInternalServerError
	switch orderErr.Kind {
	case service.KindValidation, service.KindEmptyOrder, service.KindProductNotFound, service.KindForeignKey:
		status = http.StatusBadRequest
	case service.KindDuplicate:
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"errors":  orderErr.Issues,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
