package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pricewatch/models"
	"pricewatch/pipeline"
	"pricewatch/scheduler"
	"pricewatch/scraper"
)

const maxRequestSize = 1 << 20

// ProductService is the single-product surface of the pipeline
type ProductService interface {
	Track(ctx context.Context, rawURL string) (*models.TrackedProduct, error)
	Subscribe(ctx context.Context, productID int, email string) (bool, error)
	Product(ctx context.Context, id int) (*models.TrackedProduct, error)
	Products(ctx context.Context) ([]models.TrackedProduct, error)
	Similar(ctx context.Context, id int, limit int) ([]models.TrackedProduct, error)
}

// RunTrigger starts pipeline runs and reports on them
type RunTrigger interface {
	RunNow(ctx context.Context) (*models.PipelineRun, error)
	LastRun() *models.PipelineRun
	GetRun(id string) (*models.PipelineRun, bool)
}

type Handlers struct {
	products  ProductService
	runs      RunTrigger
	startedAt time.Time
	log       logrus.FieldLogger
}

func NewHandlers(products ProductService, runs RunTrigger, log logrus.FieldLogger) *Handlers {
	return &Handlers{
		products:  products,
		runs:      runs,
		startedAt: time.Now(),
		log:       log.WithField("component", "handlers"),
	}
}

// Register mounts every route on the router
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/status", h.Status).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/products", h.TrackProduct).Methods("POST")
	apiV1.HandleFunc("/products", h.GetProducts).Methods("GET")
	apiV1.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	apiV1.HandleFunc("/products/{id}/similar", h.GetSimilarProducts).Methods("GET")
	apiV1.HandleFunc("/products/{id}/subscribers", h.Subscribe).Methods("POST")
	apiV1.HandleFunc("/runs", h.TriggerRun).Methods("POST")
	apiV1.HandleFunc("/runs/{runId}", h.GetRun).Methods("GET")
}

// HealthCheck returns a simple health check response
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "pricewatch",
	})
}

// Status reports uptime and the most recent pipeline run
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"last_run": h.runs.LastRun(),
	})
}

// TrackProduct scrapes a product URL and starts tracking it
func (h *Handlers) TrackProduct(w http.ResponseWriter, r *http.Request) {
	var req models.TrackProductRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.products.Track(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, "A valid http(s) product URL is required")
		case errors.Is(err, scraper.ErrPriceUnavailable):
			writeError(w, http.StatusUnprocessableEntity, "No price found on product page")
		case errors.Is(err, scraper.ErrRetrievalFailed),
			errors.Is(err, scraper.ErrBotWall),
			errors.Is(err, scraper.ErrEmptyDocument):
			h.log.WithError(err).Warn("Failed to retrieve product page")
			writeError(w, http.StatusBadGateway, "Failed to retrieve product page")
		default:
			h.log.WithError(err).Error("Failed to track product")
			writeError(w, http.StatusInternalServerError, "Failed to track product")
		}
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// GetProducts returns all tracked products
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Products(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to get products")
		writeError(w, http.StatusInternalServerError, "Failed to get products")
		return
	}

	// always return an array
	if products == nil {
		products = []models.TrackedProduct{}
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns one tracked product
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.products.Product(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, "Failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// GetSimilarProducts returns other tracked products to suggest alongside one
func (h *Handlers) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	products, err := h.products.Similar(r.Context(), id, limit)
	if err != nil {
		h.writeLookupError(w, err, "Failed to get similar products")
		return
	}
	if products == nil {
		products = []models.TrackedProduct{}
	}

	writeJSON(w, http.StatusOK, products)
}

// Subscribe registers an email address against a product
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req models.SubscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	added, err := h.products.Subscribe(r.Context(), id, req.Email)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, "A valid email address is required")
			return
		}
		h.writeLookupError(w, err, "Failed to subscribe")
		return
	}

	status := http.StatusOK
	message := "Already subscribed"
	if added {
		status = http.StatusCreated
		message = "Subscribed successfully"
	}
	writeJSON(w, status, map[string]interface{}{
		"product_id": id,
		"subscribed": added,
		"message":    message,
	})
}

// TriggerRun runs the pipeline once, synchronously
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			writeError(w, http.StatusConflict, "A pipeline run is already in progress")
			return
		}
		h.log.WithError(err).Error("Pipeline run failed")
		if run != nil {
			writeJSON(w, http.StatusInternalServerError, run)
			return
		}
		writeError(w, http.StatusInternalServerError, "Pipeline run failed")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// GetRun returns a retained pipeline run
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.GetRun(mux.Vars(r)["runId"])
	if !ok {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, models.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	h.log.WithError(err).Error(message)
	writeError(w, http.StatusInternalServerError, message)
}

func productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
