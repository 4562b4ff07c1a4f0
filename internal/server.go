package internal

import (
	"context"
	"net/http"
	"time"

	"rental-inventory-api/internal/auth"
	"rental-inventory-api/internal/config"
	"rental-inventory-api/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// listLimit caps every collection listing. The cap is silent: documents
// beyond it are simply not returned.
const listLimit = 1000

type Server struct {
	Client  *mongo.Client
	DB      *mongo.Database
	Router  *chi.Mux
	JWT     *auth.JWTManager
	Metrics *Metrics
	Log     zerolog.Logger

	cfg *config.Config
}

// NewServer connects to the document store and wires up the full route
// table. The caller owns the lifecycle and must Close the server.
func NewServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, err
	}

	s := &Server{
		Client:  client,
		DB:      client.Database(cfg.Mongo.Database),
		Router:  chi.NewRouter(),
		JWT:     auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience, time.Duration(cfg.Auth.JWTExpiry)),
		Metrics: NewMetrics(),
		Log:     log,
		cfg:     cfg,
	}
	s.routes()
	return s, nil
}

// Close disconnects from the store.
func (s *Server) Close(ctx context.Context) error {
	if s.Client != nil {
		return s.Client.Disconnect(ctx)
	}
	return nil
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.Log))

	if s.cfg.Metrics.Enabled {
		r.Use(s.Metrics.Middleware())
		r.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	r.Get("/dbping", s.dbPing)

	if s.cfg.Auth.Enabled {
		r.Post("/auth/login", s.login)
	}

	r.Group(func(r chi.Router) {
		if s.cfg.Auth.Enabled {
			r.Use(auth.Middleware(s.JWT))
		}
		s.mountEntityRoutes(r)
	})
}

func (s *Server) mountEntityRoutes(r chi.Router) {
	r.Post("/resources", s.createResource)
	r.Get("/resources", s.listResources)
	r.Put("/resources/{id}", s.updateResource)

	r.Post("/storages", s.createStorage)
	r.Get("/storages", s.listStorages)
	r.Put("/storages/{id}", s.updateStorage)
	r.Get("/storages/summary", s.storageSummary)

	r.Post("/stock-items", s.createStockItem)
	r.Get("/stock-items", s.listStockItems)
	r.Put("/stock-items/{id}", s.updateStockItem)
	r.Get("/stock-items/damaged/{id}", s.damagedStockItems)

	r.Post("/reservations", s.createReservation)
	r.Get("/reservations", s.listReservations)
	r.Put("/reservations/{id}", s.updateReservation)
	r.Get("/reservations/overdue/{storageID}", s.overdueReservations)
	r.Get("/reservations/unreturned/{storageID}", s.unreturnedReservations)
	r.Get("/reservations/detailed", s.detailedReservations)

	r.Post("/damages", s.createDamages)
	r.Get("/damages", s.listDamages)
	r.Put("/damages/{id}", s.updateDamages)

	importsHandler := handlers.NewImportsHandler(s.DB, s.Log)
	if s.cfg.Auth.Enabled {
		r.With(auth.MustRole("admin")).Post("/imports/excel", importsHandler.UploadExcel)
	} else {
		r.Post("/imports/excel", importsHandler.UploadExcel)
	}
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.Client.Ping(ctx, readpref.Primary()); err != nil {
		http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("db: ok")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rw, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.code).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
