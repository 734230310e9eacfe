package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"

	"github.com/kirillkom/docgate/internal/config"
	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
	"github.com/kirillkom/docgate/internal/observability/metrics"
)

const (
	serviceName      = "api"
	backpressureWait = 250 * time.Millisecond
	multipartMemory  = 8 << 20
)

type Router struct {
	cfg       config.Config
	submitter ports.ValidationSubmitter
	reader    ports.ValidationReader
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	cfg config.Config,
	submitter ports.ValidationSubmitter,
	reader ports.ValidationReader,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:       cfg,
		submitter: submitter,
		reader:    reader,
		metrics:   httpMetrics,
		logger:    logger,
	}
}

// Handler panics if the embedded contract is invalid, which is a build defect.
func (rt *Router) Handler() http.Handler {
	c, err := loadContract()
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/validations", rt.createValidation)
	mux.HandleFunc("GET /v1/validations/{validation_id}", rt.getValidation)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var h http.Handler = c.middleware(mux)
	h = backpressureMiddleware(h, rt.cfg.APIMaxInFlight, backpressureWait, rt.recordThrottled)
	h = rateLimitMiddleware(h, rt.limiter(), rt.recordThrottled)
	if rt.metrics != nil {
		h = rt.metrics.Middleware(serviceName, h)
	}
	h = accessLogMiddleware(rt.logger, h)
	return requestIDMiddleware(h)
}

func (rt *Router) limiter() *rate.Limiter {
	if rt.cfg.APIRateLimitRPS <= 0 {
		return nil
	}
	burst := rt.cfg.APIRateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rt.cfg.APIRateLimitRPS), burst)
}

func (rt *Router) recordThrottled(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordThrottled(serviceName, reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type validationResponse struct {
	ID             string                 `json:"id"`
	Accepted       bool                   `json:"accepted"`
	Reason         domain.ReasonCode      `json:"reason,omitempty"`
	Detail         string                 `json:"detail,omitempty"`
	Stage          domain.Stage           `json:"stage"`
	Pages          int                    `json:"pages"`
	Chars          int                    `json:"chars"`
	LexiconVersion string                 `json:"lexicon_version,omitempty"`
	Classification *domain.Classification `json:"classification,omitempty"`
}

func (rt *Router) createValidation(w http.ResponseWriter, r *http.Request) {
	var mode *string
	if err := runtime.BindQueryParameter("form", true, false, "mode", r.URL.Query(), &mode); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid parameter mode: %v", err))
		return
	}
	async := mode != nil && *mode == "async"

	if rt.cfg.APIMaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.APIMaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, publicErrorMessage(http.StatusRequestEntityTooLarge, err))
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart/form-data body is required")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	mediaType := resolveMediaType(r.FormValue("mime_type"), header.Header.Get("Content-Type"))

	if async {
		rec, err := rt.submitter.Enqueue(r.Context(), header.Filename, mediaType, file)
		if err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, rec)
		return
	}

	rec, outcome, err := rt.submitter.Validate(r.Context(), header.Filename, mediaType, file)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validationResponse{
		ID:             rec.ID,
		Accepted:       outcome.Accepted,
		Reason:         outcome.Reason,
		Detail:         outcome.Detail,
		Stage:          outcome.Stage,
		Pages:          outcome.Pages,
		Chars:          outcome.Chars,
		LexiconVersion: outcome.LexiconVersion,
		Classification: outcome.Classification,
	})
}

func (rt *Router) getValidation(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "validation_id", r.PathValue("validation_id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "validation id is required")
		return
	}

	rec, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
	}
	writeError(w, r, status, publicErrorMessage(status, err))
}

// resolveMediaType returns the explicit override, else the part's declared
// type. Content is never sniffed: an unknown or missing type reaches the
// pipeline as declared and is rejected there.
func resolveMediaType(override, partType string) string {
	for _, candidate := range []string{override, partType} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if mt, _, err := mime.ParseMediaType(candidate); err == nil {
			return mt
		}
		return candidate
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": requestIDFromContext(r.Context()),
	})
}
