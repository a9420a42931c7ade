package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lueurxax/tgway/internal/access"
	"github.com/lueurxax/tgway/internal/enrich"
	"github.com/lueurxax/tgway/internal/link"
)

// HTTP header constants.
const headerContentType = "Content-Type"

const contentTypeHTML = "text/html; charset=utf-8"

const imagePathPrefix = "/static/img/"

// Handler serves the converter form and the deep-link landing pages.
type Handler struct {
	gate     *access.Gate
	enricher *enrich.Pipeline
	renderer *Renderer
	baseURL  string
	imageDir string
	logger   *zerolog.Logger
}

// NewHandler creates a new web handler.
func NewHandler(gate *access.Gate, enricher *enrich.Pipeline, baseURL, imageDir string, logger *zerolog.Logger) (*Handler, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	return &Handler{
		gate:     gate,
		enricher: enricher,
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		imageDir: imageDir,
		logger:   logger,
	}, nil
}

// Router builds the route table. Literal segments win over wildcards, so
// /joinchat/{code} is matched before /{name}/{post}.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(securityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if h.imageDir != "" {
		fs := http.FileServer(http.Dir(h.imageDir))
		r.Handle(imagePathPrefix+"*", http.StripPrefix(imagePathPrefix, fs))
	}

	r.Get("/", h.index)
	r.Post("/", h.index)
	r.Get("/proxy", h.redirectPage)
	r.Get("/joinchat/{code}", h.redirectPage)
	r.Get("/addstickers/{name}", h.redirectPage)
	r.Get("/{name}", h.redirectPage)
	r.Get("/{name}/{post}", h.redirectPage)

	return r
}

// index serves the converter form. A POST with a url form field runs the full
// normalize/classify pass and echoes either the canonical link or the
// validation error alongside the original input.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerContentType, contentTypeHTML)

	data := &IndexData{}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			h.convert(data, r.PostFormValue("url"))
		}
	}

	if err := h.renderer.RenderIndex(w, data); err != nil {
		h.logger.Error().Err(err).Msg("failed to render index page")
	}
}

func (h *Handler) convert(data *IndexData, sourceURL string) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return
	}

	data.SourceURL = sourceURL

	path, query, err := link.Normalize(sourceURL)
	if err != nil {
		data.Error = err.Error()

		return
	}

	target, err := link.Classify(path, query)
	if err != nil {
		data.Error = err.Error()

		return
	}

	data.RedirectURL = h.baseURL + link.Build(target).SitePath
}

// redirectPage resolves a path-addressed target and renders the landing page.
func (h *Handler) redirectPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	defer func() {
		latencyHistogram.Observe(time.Since(start).Seconds())
	}()

	w.Header().Set(headerContentType, contentTypeHTML)

	target, err := link.Classify(routePath(r), r.URL.Query())
	if err != nil {
		h.rejectInvalid(w, err)

		return
	}

	switch h.gate.Check(target) {
	case access.Blacklisted:
		deniedTotal.WithLabelValues(reasonBlacklisted).Inc()
		hitsTotal.WithLabelValues(statusBlocked).Inc()
		h.renderError(w, http.StatusUnavailableForLegalReasons, "Unavailable", "This target is not served here.")

		return
	case access.NotWhitelisted:
		deniedTotal.WithLabelValues(reasonNotWhitelisted).Inc()
		hitsTotal.WithLabelValues(statusNotFound).Inc()
		h.renderError(w, http.StatusNotFound, "Not Found", "This target is not served here.")

		return
	case access.Allowed:
	}

	redirect := link.Build(target)

	data := &RedirectData{
		Location:  template.URL(redirect.Location),
		BasePath:  h.baseURL,
		RouteName: string(target.Kind),
	}

	h.applyPreview(data, h.enricher.Enrich(r.Context(), target))

	if err := h.renderer.RenderRedirect(w, data); err != nil {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to render landing page")

		return
	}

	redirectsTotal.WithLabelValues(string(target.Kind)).Inc()
	hitsTotal.WithLabelValues(statusOK).Inc()
}

func (h *Handler) applyPreview(data *RedirectData, preview *enrich.Preview) {
	if preview == nil {
		return
	}

	data.ProfileName = preview.DisplayName
	data.ProfileStatus = template.HTML(preview.StatusHTML)
	data.ProfileImage = preview.ImageURL
	data.MessageText = template.HTML(preview.MessageHTML)
	data.ProfileExtra = template.HTML(preview.ExtraHTML)

	if preview.ImageFile != "" {
		data.LocalProfileImage = imagePathPrefix + preview.ImageFile
	}
}

// rejectInvalid maps classification failures: malformed proxy parameters are
// a client error, everything else reads as a target that does not exist.
func (h *Handler) rejectInvalid(w http.ResponseWriter, err error) {
	if errors.Is(err, link.ErrInvalidServer) || errors.Is(err, link.ErrInvalidPort) || errors.Is(err, link.ErrInvalidSecret) {
		deniedTotal.WithLabelValues(reasonBadProxy).Inc()
		hitsTotal.WithLabelValues(statusBadRequest).Inc()
		h.renderError(w, http.StatusBadRequest, "Bad Request", err.Error())

		return
	}

	deniedTotal.WithLabelValues(reasonInvalidTarget).Inc()
	hitsTotal.WithLabelValues(statusNotFound).Inc()
	h.renderError(w, http.StatusNotFound, "Not Found", err.Error())
}

func (h *Handler) renderError(w http.ResponseWriter, code int, title, message string) {
	w.WriteHeader(code)

	if err := h.renderer.RenderError(w, &ErrorData{Code: code, Title: title, Message: message}); err != nil {
		h.logger.Error().Err(err).Msg("failed to render error page")
	}
}

// routePath rebuilds the classifiable path from the matched route params.
func routePath(r *http.Request) string {
	if code := chi.URLParam(r, "code"); code != "" {
		return "joinchat/" + code
	}

	if strings.HasPrefix(r.URL.Path, "/addstickers/") {
		return "addstickers/" + chi.URLParam(r, "name")
	}

	if r.URL.Path == "/proxy" {
		return "proxy"
	}

	name := chi.URLParam(r, "name")
	if post := chi.URLParam(r, "post"); post != "" {
		return name + "/" + post
	}

	return name
}
