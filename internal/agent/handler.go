package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"basic-agent-service/internal/config"
	"basic-agent-service/internal/llm"
	"basic-agent-service/internal/metrics"
	"basic-agent-service/internal/types"

	"github.com/go-chi/chi/v5/middleware"
)

// Completer is the part of llm.Client the handler depends on
type Completer interface {
	GetCompletion(ctx context.Context, userMessage string, opts ...llm.CompletionOption) (string, error)
}

// QueryHandler answers POST /agent/process_query
type QueryHandler struct {
	llm         Completer
	maxBodySize int64
	logger      *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(completer Completer, maxBodySize int64, logger *slog.Logger) *QueryHandler {
	if maxBodySize <= 0 {
		maxBodySize = config.DefaultMaxBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{
		llm:         completer,
		maxBodySize: maxBodySize,
		logger:      logger.With("component", config.ComponentAgent),
	}
}

// ServeHTTP handles incoming query requests
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("request body too large", "limit", maxErr.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "request body too large"})
		} else {
			logger.Warn("read body failed", "error", err)
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "error reading request body"})
		}
		metrics.QueryRequests.WithLabelValues("invalid").Inc()
		return
	}

	req, fieldErrs := ParseQueryRequest(body)
	if len(fieldErrs) > 0 {
		logger.Warn("invalid query request", "errors", len(fieldErrs), "first", fieldErrs[0].Msg)
		metrics.QueryRequests.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, ValidationError{Detail: fieldErrs})
		return
	}

	logger = logger.With("session_id", req.SessionID, "user_id", req.UserID)
	logger.Info("received query", "query", truncate(req.UserQuery, config.PreviewLength))

	logger.Info("dispatching query to llm")
	text, err := h.llm.GetCompletion(r.Context(), req.UserQuery, llm.WithSystemMessage(config.DefaultSystemPrompt))
	if err != nil {
		logger.Error("agent processing failed",
			"error", err,
			"vendor_status", types.StatusCode(err),
			"transient", types.IsRetryable(err),
			"duration", time.Since(start),
		)
		metrics.QueryRequests.WithLabelValues("error").Inc()
		metrics.QueryDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}

	logger.Info("query answered",
		"duration", time.Since(start),
		"response_preview", truncate(text, config.PreviewLength),
	)
	metrics.QueryRequests.WithLabelValues("success").Inc()
	metrics.QueryDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, QueryResponse{
		ResponseText: text,
		AgentName:    config.AgentName,
	})
}
