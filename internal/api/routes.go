// Package api provides HTTP handlers for the spatialplot server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atlasmap-sc/spatialplot/internal/cache"
	"github.com/atlasmap-sc/spatialplot/internal/plot"
	"github.com/atlasmap-sc/spatialplot/internal/service"
)

// maxBodyBytes bounds POST request bodies.
const maxBodyBytes = 1 << 20

// RouterConfig contains router configuration.
type RouterConfig struct {
	Registry    *DatasetRegistry
	CORSOrigins []string
	Cache       *cache.Manager
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/api/datasets", datasetsHandler(cfg.Registry))

	// Dataset-scoped routes: /d/{dataset}/...
	r.Route("/d/{dataset}", func(r chi.Router) {
		r.Use(datasetMiddleware(cfg.Registry))

		r.Get("/spatial.png", spatialImageHandler)
		r.Post("/spatial", spatialRenderHandler)

		r.Route("/api", func(r chi.Router) {
			r.Get("/features", catalogHandler(cfg.Cache))
			r.Get("/annotations", annotationsHandler)
		})
	})

	return r
}

// Context key for dataset service
type ctxKey string

const datasetServiceKey ctxKey = "datasetService"

// datasetMiddleware resolves the dataset from URL and injects the figure service into context.
func datasetMiddleware(registry *DatasetRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			datasetID := chi.URLParam(r, "dataset")
			svc := registry.Get(datasetID)
			if svc == nil {
				http.Error(w, "dataset not found: "+datasetID, http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), datasetServiceKey, svc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getDatasetService(r *http.Request) *service.FigureService {
	if svc, ok := r.Context().Value(datasetServiceKey).(*service.FigureService); ok {
		return svc
	}
	return nil
}

// datasetsHandler returns the list of available datasets.
func datasetsHandler(registry *DatasetRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"default":  registry.DefaultDatasetID(),
			"datasets": registry.Datasets(),
			"title":    registry.Title(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// statusFor maps figure errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, plot.ErrInvalidInput),
		errors.Is(err, plot.ErrUnknownFeature),
		errors.Is(err, plot.ErrTooManyPanels),
		errors.Is(err, plot.ErrTooManyColumns),
		errors.Is(err, plot.ErrUnknownAnnotation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func spatialImageHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}
	req, err := parseFigureQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := svc.Render(req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writePNG(w, data)
}

func spatialRenderHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}

	var req service.FigureRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	data, err := svc.Render(&req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writePNG(w, data)
}

// parseFigureQuery reads a figure request from URL parameters. features and
// categorical take comma-separated lists and may be repeated.
func parseFigureQuery(q url.Values) (*service.FigureRequest, error) {
	req := &service.FigureRequest{
		BarcodeGeom: strings.TrimSpace(q.Get("geom")),
		AnnotGeom:   strings.TrimSpace(q.Get("annot")),
		Color:       strings.TrimSpace(q.Get("color")),
		Colormap:    strings.TrimSpace(q.Get("cmap")),
		Categorical: splitList(q["categorical"]),
		Legend: service.LegendParams{
			Label:       q.Get("label"),
			Title:       q.Get("title"),
			Orientation: strings.TrimSpace(q.Get("orientation")),
			Loc:         q.Get("loc"),
		},
	}

	features := splitList(q["features"])
	if len(features) == 0 {
		return nil, errors.New("missing required query param: features")
	}
	req.Features = features

	var err error
	if s := q.Get("ncol"); s != "" {
		if req.NCol, err = strconv.Atoi(s); err != nil {
			return nil, errors.New("invalid ncol parameter")
		}
	}
	if s := q.Get("tissue"); s != "" {
		tissue, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.New("invalid tissue parameter")
		}
		req.Tissue = &tissue
	}
	if s := q.Get("shrink"); s != "" {
		if req.Legend.Shrink, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, errors.New("invalid shrink parameter")
		}
	}
	if s := q.Get("dpi"); s != "" {
		if req.DPI, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, errors.New("invalid dpi parameter")
		}
	}
	if s := q.Get("figsize"); s != "" {
		for _, part := range strings.Split(s, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, errors.New("invalid figsize parameter")
			}
			req.FigSize = append(req.FigSize, v)
		}
	}
	return req, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func catalogHandler(c *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc := getDatasetService(r)
		if svc == nil {
			http.Error(w, "dataset service not found", http.StatusInternalServerError)
			return
		}

		key := cache.QueryKey(svc.DatasetID(), "catalog")
		if c != nil {
			if data, ok := c.GetQuery(key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Write(data)
				return
			}
		}

		catalog, err := svc.Catalog()
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		data, err := json.Marshal(catalog)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if c != nil {
			c.SetQuery(key, data)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func annotationsHandler(w http.ResponseWriter, r *http.Request) {
	svc := getDatasetService(r)
	if svc == nil {
		http.Error(w, "dataset service not found", http.StatusInternalServerError)
		return
	}
	catalog, err := svc.Catalog()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, map[string]interface{}{
		"annotations":      catalog.Annotations,
		"geometry_columns": catalog.GeometryColumns,
	})
}
