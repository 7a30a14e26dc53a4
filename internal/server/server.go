// Package server отдает калькуляторы по HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/calculator"
	"github.com/cloud-ru/moneycalc-go/internal/tools"
	"github.com/cloud-ru/moneycalc-go/internal/units"
	"github.com/cloud-ru/moneycalc-go/internal/validators"
)

const maxBodyBytes = 1 << 20

// Handler - HTTP-обработчики поверх инструментов
type Handler struct {
	tools  map[string]tools.ToolHandler
	logger *zap.Logger
}

// NewHandler создает обработчики для зависимостей d
func NewHandler(d tools.Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tools: tools.Registry(d), logger: logger}
}

// Router собирает маршруты
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/calculators", h.ListCalculators).Methods(http.MethodGet)
	api.HandleFunc("/calculators/{kind}", h.Calculate).Methods(http.MethodPost)
	api.HandleFunc("/calculators/{kind}/restore", h.Restore).Methods(http.MethodGet)
	api.HandleFunc("/share", h.Share).Methods(http.MethodGet)
	api.HandleFunc("/compare", h.Compare).Methods(http.MethodPost)
	api.HandleFunc("/preferences", h.GetPreference).Methods(http.MethodGet)
	api.HandleFunc("/preferences", h.SwitchPreference).Methods(http.MethodPut)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	return r
}

// ListCalculators возвращает калькуляторы и их поля
func (h *Handler) ListCalculators(w http.ResponseWriter, _ *http.Request) {
	type field struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	out := make(map[calculator.Kind][]field)
	for _, kind := range calculator.Kinds() {
		schema, _ := calculator.Schema(kind)
		for _, f := range schema {
			role := f.Role.String()
			if f.Choice {
				role = "choice"
			}
			out[kind] = append(out[kind], field{Name: f.Name, Role: role})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Calculate выполняет расчет калькулятора из пути запроса
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	kind, err := calculator.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}
	h.call(r.Context(), w, string(kind), params)
}

// Restore пересчитывает результат по параметрам ссылки
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	kind, err := calculator.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	h.call(r.Context(), w, string(kind)+"_restore", map[string]interface{}{"query": r.URL.RawQuery})
}

// Share восстанавливает все калькуляторы из параметров ссылки
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	h.call(r.Context(), w, "share", map[string]interface{}{"query": r.URL.RawQuery})
}

// Compare сравнивает способы погашения
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}
	h.call(r.Context(), w, "compare", params)
}

// GetPreference возвращает текущие настройки единиц
func (h *Handler) GetPreference(w http.ResponseWriter, r *http.Request) {
	h.call(r.Context(), w, "preference", map[string]interface{}{})
}

// SwitchPreference меняет настройки единиц
func (h *Handler) SwitchPreference(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}
	h.call(r.Context(), w, "preference", params)
}

func (h *Handler) decodeParams(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var params map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return params, true
}

func (h *Handler) call(ctx context.Context, w http.ResponseWriter, name string, params map[string]interface{}) {
	handler, ok := h.tools[name]
	if !ok {
		writeError(w, http.StatusNotFound, calculator.ErrUnknownKind)
		return
	}
	out, err := handler(ctx, params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tools.ErrInvalidParams),
		errors.Is(err, validators.ErrInvalidInput),
		errors.Is(err, units.ErrUnknownUnit),
		errors.Is(err, calculator.ErrMissingField),
		errors.Is(err, calculator.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, calculator.ErrUnknownKind):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
