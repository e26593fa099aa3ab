package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpapi "quiosco/order-svc/internal/api/http"
	"quiosco/order-svc/internal/cart"
	"quiosco/order-svc/internal/domain"
	"quiosco/order-svc/internal/mocks"
	"quiosco/order-svc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerMocks struct {
	catalog *mocks.CatalogServiceInterface
	orders  *mocks.OrderServiceInterface
	carts   *mocks.CartServiceInterface
}

func newTestRouter(t *testing.T) (http.Handler, handlerMocks) {
	m := handlerMocks{
		catalog: mocks.NewCatalogServiceInterface(t),
		orders:  mocks.NewOrderServiceInterface(t),
		carts:   mocks.NewCartServiceInterface(t),
	}
	handler := httpapi.NewHandler(m.catalog, m.orders, m.carts)
	return httpapi.NewRouter(handler, ""), m
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestHealthHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "order-svc", decodeBody(t, w)["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiosco_http_request_duration_seconds")
}

func TestCreateOrderHandler(t *testing.T) {
	tests := []struct {
		name       string
		prepare    func(m handlerMocks)
		wantCode   int
		wantErrors bool
	}{
		{
			name: "created",
			prepare: func(m handlerMocks) {
				m.orders.On("Create", mock.Anything, []byte(anaOrder)).Return(7, nil).Once()
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "validation",
			prepare: func(m handlerMocks) {
				m.orders.On("Create", mock.Anything, mock.Anything).Return(0, &service.OrderError{
					Kind:   service.KindValidation,
					Issues: []domain.Issue{{Path: "phone", Message: "El teléfono es obligatorio"}},
				}).Once()
			},
			wantCode:   http.StatusBadRequest,
			wantErrors: true,
		},
		{
			name: "unknown product",
			prepare: func(m handlerMocks) {
				m.orders.On("Create", mock.Anything, mock.Anything).Return(0, &service.OrderError{
					Kind:   service.KindProductNotFound,
					Issues: []domain.Issue{{Message: service.MsgProductsMissing}},
				}).Once()
			},
			wantCode:   http.StatusBadRequest,
			wantErrors: true,
		},
		{
			name: "duplicate",
			prepare: func(m handlerMocks) {
				m.orders.On("Create", mock.Anything, mock.Anything).Return(0, &service.OrderError{
					Kind:   service.KindDuplicate,
					Issues: []domain.Issue{{Message: service.MsgDuplicateProduct}},
				}).Once()
			},
			wantCode:   http.StatusConflict,
			wantErrors: true,
		},
		{
			name: "internal",
			prepare: func(m handlerMocks) {
				m.orders.On("Create", mock.Anything, mock.Anything).Return(0, errors.New("boom")).Once()
			},
			wantCode:   http.StatusInternalServerError,
			wantErrors: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			testCase.prepare(m)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(anaOrder)))

			assert.Equal(t, testCase.wantCode, w.Code)
			body := decodeBody(t, w)
			if testCase.wantErrors {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["errors"])
				assert.NotContains(t, w.Body.String(), "boom")
				return
			}
			assert.Equal(t, true, body["success"])
			assert.Equal(t, service.MsgOrderCreated, body["message"])
			assert.Equal(t, float64(7), body["orderId"])
		})
	}
}

func TestCreateOrderHandler_HidesInternalText(t *testing.T) {
	router, m := newTestRouter(t)
	m.orders.On("Create", mock.Anything, mock.Anything).Return(0, errors.New("pq: password authentication failed")).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(anaOrder)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), service.MsgInternal)
}

func TestMarkOrderReadyHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.orders.On("MarkReady", mock.Anything, 5).Return(nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders/5/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["success"])
	})

	t.Run("not updated", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.orders.On("MarkReady", mock.Anything, 6).Return(service.ErrOrderNotUpdated).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders/6/ready", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "No se pudo actualizar la orden", body["error"])
	})
}

func TestGetOrdersHandler(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ready bool
	}{
		{name: "pending by default", query: "", ready: false},
		{name: "pending", query: "?status=pending", ready: false},
		{name: "ready", query: "?status=ready", ready: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			m.orders.On("List", mock.Anything, testCase.ready).Return([]domain.Order{{ID: 1, Name: "Ana"}}, nil).Once()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders"+testCase.query, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			var orders []domain.Order
			require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
			assert.Len(t, orders, 1)
		})
	}
}

func TestGetOrderHandler(t *testing.T) {
	router, m := newTestRouter(t)
	m.orders.On("Get", mock.Anything, 7).Return(&domain.Order{ID: 7, Name: "Ana"}, nil).Once()
	m.orders.On("Get", mock.Anything, 8).Return(nil, domain.ErrNotFound).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/8", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderQRCodeHandler(t *testing.T) {
	router, m := newTestRouter(t)
	m.orders.On("GetQRCode", mock.Anything, 7).Return([]byte("\x89PNG"), nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/7/qrcode", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String())
}

func TestCategoriesHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.catalog.On("Categories", mock.Anything).Return([]domain.Category{{ID: 1, Name: "Café", Slug: "cafe"}}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":1,"name":"Café","slug":"cafe"}]`, w.Body.String())
	})

	t.Run("failure", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.catalog.On("Categories", mock.Anything).Return(nil, errors.New("db down")).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Error fetching categories", decodeBody(t, w)["error"])
	})
}

func TestCategoryProductsHandler(t *testing.T) {
	router, m := newTestRouter(t)
	m.catalog.On("ProductsByCategory", mock.Anything, "cafe").Return([]domain.Product{cafe}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories/cafe/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductsHandler_List(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPage int
		wantTerm string
	}{
		{name: "defaults", query: "", wantPage: 1},
		{name: "page", query: "?page=3", wantPage: 3},
		{name: "garbage page", query: "?page=abc", wantPage: 1},
		{name: "search", query: "?page=2&search=caf", wantPage: 2, wantTerm: "caf"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			m.catalog.On("ListProducts", mock.Anything, testCase.wantPage, testCase.wantTerm).
				Return(&domain.ProductPage{Products: []domain.Product{}, Page: testCase.wantPage, PageSize: 6}, nil).Once()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products"+testCase.query, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, float64(6), decodeBody(t, w)["pageSize"])
		})
	}
}

func TestProductsHandler_Create(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "created", wantCode: http.StatusOK, wantMsg: "Producto creado exitosamente"},
		{name: "missing fields", err: service.ErrMissingFields, wantCode: http.StatusBadRequest, wantMsg: "Todos los campos son requeridos"},
		{name: "bad category", err: service.ErrInvalidCategory, wantCode: http.StatusBadRequest, wantMsg: "ID de categoría inválido"},
		{name: "bad price", err: service.ErrInvalidPrice, wantCode: http.StatusBadRequest, wantMsg: "Precio inválido"},
		{name: "unknown category", err: service.ErrCategoryNotFound, wantCode: http.StatusBadRequest, wantMsg: "La categoría seleccionada no existe"},
		{name: "duplicate", err: service.ErrDuplicateProduct, wantCode: http.StatusBadRequest, wantMsg: "Ya existe un producto con ese nombre"},
		{name: "internal", err: errors.New("db down"), wantCode: http.StatusInternalServerError, wantMsg: "Error interno del servidor al crear el producto"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			expected := domain.ProductInput{Name: "Pizza", Price: "12.5", CategoryID: "3", Image: "a.jpg"}
			if testCase.err != nil {
				m.catalog.On("CreateProduct", mock.Anything, expected).Return(nil, testCase.err).Once()
			} else {
				m.catalog.On("CreateProduct", mock.Anything, expected).
					Return(&domain.Product{ID: 21, Name: "Pizza", Price: 12.5, Image: "a.jpg", CategoryID: 3, CategoryName: "Pizzas"}, nil).Once()
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/products",
				strings.NewReader(`{"name":"Pizza","price":12.5,"categoryId":"3","image":"a.jpg"}`))
			router.ServeHTTP(w, req)

			assert.Equal(t, testCase.wantCode, w.Code)
			assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
			body := decodeBody(t, w)
			if testCase.err != nil {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, testCase.wantMsg, body["error"])
				return
			}
			assert.Equal(t, true, body["success"])
			assert.Equal(t, testCase.wantMsg, body["message"])
		})
	}
}

func TestProductsHandler_Preflight(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadHandler(t *testing.T) {
	t.Run("uploaded", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.catalog.On("UploadImage", mock.Anything, "cafe.png", "image/png", mock.Anything, int64(len(pngHeader))).
			Return("https://cdn/products/x-cafe.png", nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "file", "cafe.png", pngHeader))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "https://cdn/products/x-cafe.png", body["url"])
	})

	t.Run("wrong field", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "image", "cafe.png", pngHeader))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No se proporcionó ningún archivo", decodeBody(t, w)["error"])
	})

	t.Run("not an image", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "file", "notes.txt", []byte("just some text")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.catalog.On("UploadImage", mock.Anything, "cafe.png", "image/png", mock.Anything, mock.Anything).
			Return("", errors.New("access denied")).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartUpload(t, "file", "cafe.png", pngHeader))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Error interno del servidor al subir la imagen", decodeBody(t, w)["error"])
	})
}

func TestCartHandlers(t *testing.T) {
	withCafe := func() *cart.Cart {
		c := cart.New()
		c.Add(cafe)
		return c
	}

	t.Run("get", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("Get", mock.Anything, session).Return(withCafe(), nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/carts/"+session, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, 2.5, body["total"])
		assert.Equal(t, float64(1), body["itemCount"])
	})

	t.Run("add", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("AddProduct", mock.Anything, session, 1).Return(withCafe(), nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/carts/"+session+"/items", strings.NewReader(`{"productId":1}`)))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("add unknown product", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("AddProduct", mock.Anything, session, 99).Return(nil, domain.ErrNotFound).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/carts/"+session+"/items", strings.NewReader(`{"productId":99}`)))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("steps", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("Increase", mock.Anything, session, 1).Return(withCafe(), nil).Once()
		m.carts.On("Decrease", mock.Anything, session, 1).Return(withCafe(), nil).Once()
		m.carts.On("Remove", mock.Anything, session, 1).Return(cart.New(), nil).Once()

		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodPost, "/api/carts/"+session+"/items/1/increase", nil),
			httptest.NewRequest(http.MethodPost, "/api/carts/"+session+"/items/1/decrease", nil),
			httptest.NewRequest(http.MethodDelete, "/api/carts/"+session+"/items/1", nil),
		} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, req.URL.Path)
		}
	})

	t.Run("clear", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("Clear", mock.Anything, session).Return(nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/carts/"+session, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items":[],"total":0,"itemCount":0}`, w.Body.String())
	})

	t.Run("invalid session", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("Get", mock.Anything, "bad").Return(nil, service.ErrInvalidSession).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/carts/bad", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("checkout", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("Checkout", mock.Anything, session, "Ana", "0412-1234567").Return(7, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/carts/"+session+"/checkout",
			strings.NewReader(`{"name":"Ana","phone":"0412-1234567"}`)))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, float64(7), decodeBody(t, w)["orderId"])
	})

	t.Run("checkout with invalid phone", func(t *testing.T) {
		router, m := newTestRouter(t)
		m.carts.On("Checkout", mock.Anything, session, "Ana", "0411-1234567").Return(0, &service.OrderError{
			Kind:   service.KindValidation,
			Issues: []domain.Issue{{Path: "phone", Message: "formato"}},
		}).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/carts/"+session+"/checkout",
			strings.NewReader(`{"name":"Ana","phone":"0411-1234567"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})
}
