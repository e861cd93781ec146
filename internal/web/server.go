package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/state"
	"github.com/elys-network/compounder/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// Viewer serializes reads with invocations.
type Viewer interface {
	View(fn func())
	Now() time.Time
}

// VaultReader is the read-only surface of the vault.
type VaultReader interface {
	Address() types.Address
	Symbol() string
	Decimals() uint32
	TotalSupply() sdkmath.Int
	BalanceOf(account types.Address) sdkmath.Int
	WrappedReserves() sdkmath.Int
	BaseReserves() sdkmath.Int
	TotalReserves() sdkmath.Int
	ReserveRatio() sdkmath.Int
	FeeReserves() sdkmath.Int
	Parameters() types.VaultParameters
	NextCompoundAt() time.Time
	Collaborators() map[string]types.Address
	CanTeardown() bool
}

// History lists recorded compounds, newest first.
type History interface {
	RecentCompounds(limit int) ([]types.CompoundSnapshot, error)
}

// Config holds the dependencies of a WebServer.
type Config struct {
	Port    string
	Host    Viewer
	Vault   VaultReader
	History History
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// WebServer serves read-only vault data over HTTP
type WebServer struct {
	router  *mux.Router
	port    string
	host    Viewer
	vault   VaultReader
	history History
	metrics http.Handler
	server  *http.Server
	started time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(cfg Config) (*WebServer, error) {
	if cfg.Host == nil || cfg.Vault == nil || cfg.History == nil {
		return nil, errors.New("web server requires a host, a vault and a compound history")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	server := &WebServer{
		router:  mux.NewRouter(),
		port:    cfg.Port,
		host:    cfg.Host,
		vault:   cfg.Vault,
		history: cfg.History,
		metrics: cfg.Metrics,
		started: time.Now(),
	}

	server.setupRoutes()
	server.server = &http.Server{
		Addr:         ":" + server.port,
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server, nil
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	if ws.metrics != nil {
		ws.router.Handle("/metrics", ws.metrics).Methods("GET")
	}

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/vault", ws.handleGetVault).Methods("GET")
	api.HandleFunc("/balance/{account}", ws.handleGetBalance).Methods("GET")
	api.HandleFunc("/parameters", ws.handleGetParameters).Methods("GET")
	api.HandleFunc("/collaborators", ws.handleGetCollaborators).Methods("GET")
	api.HandleFunc("/compounds", ws.handleGetCompounds).Methods("GET")
	api.HandleFunc("/compounds/latest", ws.handleGetLatestCompound).Methods("GET")
	api.HandleFunc("/compounds/summary", ws.handleGetCompoundSummary).Methods("GET")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Handler exposes the router, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// handleHealth reports process and database health
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	database := "disabled"
	hasErrors := false
	if state.DB != nil {
		database = "ok"
		if err := state.TestDBConnection(); err != nil {
			database = "unreachable"
			hasErrors = true
		}
	}

	var next, now time.Time
	ws.host.View(func() {
		next = ws.vault.NextCompoundAt()
		now = ws.host.Now()
	})

	overallStatus := "OK"
	statusCode := http.StatusOK
	if hasErrors {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "compounder",
			"version": "1.0.0",
		},
		"vault_status": map[string]interface{}{
			"address":          ws.vault.Address(),
			"database":         database,
			"next_compound_at": next,
			"compound_due":     !now.Before(next),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetVault returns supply, reserves and the reserve ratio in one consistent read
func (ws *WebServer) handleGetVault(w http.ResponseWriter, r *http.Request) {
	var response map[string]interface{}
	ws.host.View(func() {
		response = map[string]interface{}{
			"address":          ws.vault.Address(),
			"symbol":           ws.vault.Symbol(),
			"decimals":         ws.vault.Decimals(),
			"total_supply":     ws.vault.TotalSupply(),
			"wrapped_reserves": ws.vault.WrappedReserves(),
			"base_reserves":    ws.vault.BaseReserves(),
			"total_reserves":   ws.vault.TotalReserves(),
			"reserve_ratio":    ws.vault.ReserveRatio(),
			"fee_reserves":     ws.vault.FeeReserves(),
			"next_compound_at": ws.vault.NextCompoundAt(),
			"can_teardown":     ws.vault.CanTeardown(),
		}
	})

	ws.writeJSONResponse(w, http.StatusOK, response)
}

func (ws *WebServer) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	account := types.Address(mux.Vars(r)["account"])
	if account.IsNull() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid account")
		return
	}

	var balance sdkmath.Int
	ws.host.View(func() { balance = ws.vault.BalanceOf(account) })

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"balance": balance,
	})
}

func (ws *WebServer) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	var params types.VaultParameters
	ws.host.View(func() { params = ws.vault.Parameters() })

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"parameters": params,
		"timestamp":  time.Now().UTC(),
	})
}

func (ws *WebServer) handleGetCollaborators(w http.ResponseWriter, r *http.Request) {
	var collaborators map[string]types.Address
	ws.host.View(func() { collaborators = ws.vault.Collaborators() })

	ws.writeJSONResponse(w, http.StatusOK, collaborators)
}

// handleGetCompounds returns the most recent compound snapshots
func (ws *WebServer) handleGetCompounds(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)

	compounds, err := ws.history.RecentCompounds(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent compounds")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve compounds")
		return
	}

	response := map[string]interface{}{
		"compounds": compounds,
		"count":     len(compounds),
		"limit":     limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

func (ws *WebServer) handleGetLatestCompound(w http.ResponseWriter, r *http.Request) {
	compounds, err := ws.history.RecentCompounds(1)
	if err != nil || len(compounds) == 0 {
		webLogger.Debug().Err(err).Msg("No latest compound")
		ws.writeErrorResponse(w, http.StatusNotFound, "No compounds found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, compounds[0])
}

// handleGetCompoundSummary needs the database
func (ws *WebServer) handleGetCompoundSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetCompoundSummary()
	if err != nil {
		ws.writeStateError(w, err, "Failed to retrieve compound summary")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// handleGetEvents returns journaled notifications. Repeat ?name= to filter by event name.
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	var names []string
	for _, name := range r.URL.Query()["name"] {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	events, err := state.GetRecentEvents(limit, names)
	if err != nil {
		ws.writeStateError(w, err, "Failed to retrieve events")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	})
}

func parseLimit(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			return parsedLimit
		}
	}
	return defaultLimit
}

func (ws *WebServer) writeStateError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, state.ErrDBNotInitialized) {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Database is not configured")
		return
	}
	webLogger.Error().Err(err).Msg(message)
	ws.writeErrorResponse(w, http.StatusInternalServerError, message)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
