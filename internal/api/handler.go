package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eugenenazirov/functest-config/internal/config"
	"github.com/eugenenazirov/functest-config/internal/render"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves a loaded settings table over HTTP. It never modifies the table.
type Handler struct {
	cfg *config.Config

	clock    func() time.Time
	loadedAt time.Time
	etag     string
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler for cfg.
func NewHandler(cfg *config.Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg: cfg,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.loadedAt = h.clock()
	h.etag = tableETag(cfg)
	return h
}

// tableETag fingerprints the table. It is computed once since the table never
// changes; an empty tag disables conditional responses.
func tableETag(cfg *config.Config) string {
	out, err := render.String(cfg, render.FormatJSON)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256([]byte(out))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// notModified sets the ETag header and reports whether the caller already
// holds the current table.
func (h *Handler) notModified(w http.ResponseWriter, r *http.Request) bool {
	if h.etag == "" {
		return false
	}
	w.Header().Set("ETag", h.etag)
	if r.Header.Get("If-None-Match") != h.etag {
		return false
	}
	w.WriteHeader(http.StatusNotModified)
	return true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	var format render.Format
	if name := r.URL.Query().Get("format"); name != "" {
		var err error
		if format, err = render.ParseFormat(name); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "use one of python, shell, env, yaml, json, toml")
			return
		}
	}
	if h.notModified(w, r) {
		return
	}

	if format != "" {
		out, err := render.String(h.cfg, format)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
		return
	}

	entries := h.cfg.Entries()
	resp := configResponse{
		Entries:  make([]entryResponse, 0, len(entries)),
		LoadedAt: h.loadedAt,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, newEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := config.ParseKey(r.PathValue("key"))
	if err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			writeError(w, http.StatusNotFound, "Unknown key", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	if h.notModified(w, r) {
		return
	}

	value, _ := h.cfg.Get(key)
	writeJSON(w, http.StatusOK, newEntryResponse(config.Entry{
		Key:     key,
		Value:   value,
		Derived: key.Derived(),
	}))
}

func newEntryResponse(e config.Entry) entryResponse {
	resp := entryResponse{
		Key:     string(e.Key),
		Value:   e.Value,
		Derived: e.Derived,
	}
	if source, ok := e.Key.Source(); ok {
		resp.Source = string(source)
	}
	return resp
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type entryResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Derived bool   `json:"derived"`
	Source  string `json:"source,omitempty"`
}

type configResponse struct {
	Entries  []entryResponse `json:"entries"`
	LoadedAt time.Time       `json:"loadedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
