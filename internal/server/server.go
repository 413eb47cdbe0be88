package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/hardscape-estimator/internal/config"
	"github.com/iwvelando/hardscape-estimator/internal/quote"
	"github.com/iwvelando/hardscape-estimator/internal/recorder"
	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// exportKeyOrder lists the top-level settings keys written first on export.
var exportKeyOrder = []string{"logging", "output", "company"}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	recorder      recorder.Recorder
	metrics       *Metrics
	validate      *validator.Validate
}

// NewHandler constructs the HTTP handler that serves the estimating API.
// A nil recorder disables quote history.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, rec recorder.Recorder) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		recorder:      rec,
		metrics:       NewMetrics(constants.MetricsNamespace),
		validate:      newValidator(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)

	r.Route("/api", func(r chi.Router) {
		// Pricing of uploaded or editor-built settings documents
		r.Post("/estimate", h.handleEstimate)
		r.Post("/editor/estimate", h.handleEstimateEditor)
		r.Post("/editor/export", h.handleConfigExport)

		// Single-purpose calculators
		r.Post("/price", h.handlePrice)
		r.Post("/labor/rate", h.handleLaborRate)
		r.Post("/overhead/rate", h.handleOverheadRate)
		r.Post("/rounding", h.handleRounding)

		r.Get("/version", h.handleVersion)
	})
	r.Handle("/metrics", h.metrics.Handler())

	return r
}

type estimateResponse struct {
	RunID      string                 `json:"runId,omitempty"`
	Estimates  []string               `json:"estimates"`
	Quotes     []quote.Quote          `json:"quotes"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEstimate"

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	h.runEstimate(r.Context(), w, configBytes, configMap, start, op)
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleEstimateEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEstimateEditor"

	start := time.Now()

	var payload map[string]interface{}
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondDecodeError(w, err, "configuration", op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondError(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse configuration: %v", err), op)
		return
	}

	h.runEstimate(r.Context(), w, configBytes, configMap, start, op)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"

	var payload map[string]interface{}
	if err := h.decodeJSON(w, r, &payload); err != nil {
		h.respondDecodeError(w, err, "configuration", op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range exportKeyOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) runEstimate(ctx context.Context, w http.ResponseWriter, configBytes []byte, configMap map[string]interface{}, start time.Time, op string) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings := cfg.ValidateConfiguration()

	results, err := quote.GetQuotes(h.logger, *cfg)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to price estimates: %v", err), op)
		return
	}

	for _, q := range results {
		h.metrics.ObserveQuote(string(q.Result.Breakdown.Mode), q.Result.Total)
	}

	runID, err := h.recorder.RecordRun(ctx, "api", results)
	if err != nil {
		h.logger.Warn("failed to record quote history",
			zap.String("op", op),
			zap.Error(err),
		)
		runID = ""
	}

	elapsed := time.Since(start)

	if configMap == nil {
		configMap = make(map[string]interface{})
	}
	if results == nil {
		results = []quote.Quote{}
	}

	response := estimateResponse{
		RunID:      runID,
		Estimates:  estimateNames(results),
		Quotes:     results,
		CSV:        output.CsvString(results),
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("estimates priced",
		zap.String("op", op),
		zap.String("runID", runID),
		zap.Int("quotes", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	return json.NewDecoder(body).Decode(dst)
}

// respondDecodeError reports a decodeJSON failure, using 413 for bodies over
// the upload limit.
func (h *handler) respondDecodeError(w http.ResponseWriter, err error, what string, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s exceeds limit of %d bytes", what, h.maxUploadSize), op)
		return
	}
	h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode %s: %v", what, err), op)
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func estimateNames(results []quote.Quote) []string {
	names := make([]string, 0, len(results))
	for _, q := range results {
		names = append(names, q.Name)
	}
	return names
}
