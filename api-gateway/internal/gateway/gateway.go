package gateway

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	OrderSvcURL  string
	NotifySvcURL string
	// FrontendDir holds the built kiosk client; empty disables static serving.
	FrontendDir string
}

type Gateway struct {
	config Config
	client HTTPClient
}

func NewGateway(config Config, client HTTPClient) *Gateway {
	return &Gateway{
		config: config,
		client: client,
	}
}

func (g *Gateway) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status":  "healthy",
		"service": "api-gateway",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request, targetURL string) {
	log.Printf("PROXY: %s %s -> %s%s", r.Method, r.URL.Path, targetURL, r.URL.Path)

	url := targetURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		log.Printf("ERROR: Failed to create request: %v", err)
		http.Error(w, "Bad request", http.StatusInternalServerError)
		return
	}
	req.ContentLength = r.ContentLength

	for k, v := range r.Header {
		req.Header[k] = v
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("ERROR: Failed to proxy to %s: %v", targetURL, err)
		http.Error(w, "Service unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("ERROR: Failed to copy response: %v", err)
	}
}

// RouteHandler sends outbox reads to notify-svc and the rest of the API to
// order-svc. /api/menu/{slug} is a short alias for a category's products.
func (g *Gateway) RouteHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	log.Printf("ROUTE: %s %s", r.Method, path)

	if strings.HasPrefix(path, "/api/menu/") {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 3 && parts[2] != "" && r.Method == http.MethodGet {
			r.URL.Path = "/api/categories/" + parts[2] + "/products"
			log.Printf("[GATEWAY] Rewrote menu path to: %s", r.URL.Path)
			g.ProxyRequest(w, r, g.config.OrderSvcURL)
			return
		}
		http.Error(w, "API route not found", http.StatusNotFound)
		return
	}

	if path == "/api/notifications" {
		g.ProxyRequest(w, r, g.config.NotifySvcURL)
		return
	}

	if strings.HasPrefix(path, "/api/categories") ||
		strings.HasPrefix(path, "/api/products") ||
		strings.HasPrefix(path, "/api/upload") ||
		strings.HasPrefix(path, "/api/orders") ||
		strings.HasPrefix(path, "/api/carts/") ||
		strings.HasPrefix(path, "/uploads/") {
		g.ProxyRequest(w, r, g.config.OrderSvcURL)
		return
	}

	if strings.HasPrefix(path, "/api/") {
		log.Printf("[GATEWAY] Unmatched API route: %s", path)
		http.Error(w, "API route not found", http.StatusNotFound)
		return
	}

	g.serveFrontend(w, r)
}

// serveFrontend serves static assets and falls back to index.html for client-side routes.
func (g *Gateway) serveFrontend(w http.ResponseWriter, r *http.Request) {
	if g.config.FrontendDir == "" {
		http.NotFound(w, r)
		return
	}
	asset := filepath.Join(g.config.FrontendDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(asset); err == nil && !info.IsDir() {
		http.ServeFile(w, r, asset)
		return
	}
	http.ServeFile(w, r, filepath.Join(g.config.FrontendDir, "index.html"))
}

func (g *Gateway) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.HealthCheck).Methods("GET")
	r.PathPrefix("/").HandlerFunc(g.RouteHandler)
	return r
}
