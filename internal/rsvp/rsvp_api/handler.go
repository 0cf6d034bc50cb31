package rsvp_api

import (
	"context"
	"fmt"
	"ms-rsvp/internal/auth"
	"ms-rsvp/internal/imaging"
	"ms-rsvp/internal/invite"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/utils"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const DefaultMaxBodyBytes = 64 << 10

type RSVPService interface {
	Submit(ctx context.Context, req models.RSVPRequest, idempotencyKey string) (*models.RSVPResponse, error)
	List(ctx context.Context) ([]models.RSVPResponse, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// StoreProber backs the diagnostic endpoint.
type StoreProber interface {
	Ping(ctx context.Context) error
	TableExists(ctx context.Context) (bool, error)
	CountResponses(ctx context.Context) (int, error)
}

type EventSubscriber interface {
	Subscribe(ctx context.Context) <-chan models.RSVPSubmittedEvent
	ClientCount() int
}

// Handler serves the RSVP API. Store, Events, QR and Cropper are optional;
// their routes answer 503 when unset.
type Handler struct {
	Service        RSVPService
	Store          StoreProber
	Events         EventSubscriber
	QR             *invite.QRGenerator
	Cropper        *imaging.Processor
	GalleryDir     string
	ConfigPresence models.ConfigPresence
	Verifier       auth.TokenVerifier
	Logger         *logger.Logger
	MaxBodyBytes   int64
	// AllowedOrigins enables CORS for a site served from another origin
	AllowedOrigins []string
	Now            func() time.Time
}

func NewHandler(service RSVPService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	return &Handler{
		Service:      service,
		Logger:       log,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Now:          time.Now,
	}
}

// Router builds the chi router with every RSVP route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	if len(h.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Get("/healthz", h.Healthz)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the public and admin routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/rsvp", h.SubmitRSVP)
		r.Get("/rsvp-list", h.ListRSVPs)
		r.Get("/test-db", h.TestDB)
		r.Get("/invite/qr.png", h.InviteQR)
		r.Get("/gallery/{name}", h.Gallery)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Verifier, h.Logger))
			r.Get("/rsvp-stats", h.RSVPStats)
			r.Get("/rsvp-export", h.ExportRSVPs)
			r.Get("/rsvp-stream", h.StreamRSVPs)
		})
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.Logger.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
	})
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
