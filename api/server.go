// Package api exposes the lithophane pipeline over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/AtaCanYmc/LithoStream/imgutil"
	"github.com/AtaCanYmc/LithoStream/internal/config"
	"github.com/AtaCanYmc/LithoStream/internal/fsutil"
	"github.com/AtaCanYmc/LithoStream/litho"
)

// maxUploadBytes bounds the multipart form size.
const maxUploadBytes = 32 << 20

// Server handles lithophane generation requests.
type Server struct {
	cfg *config.Config
	log *zap.Logger
}

// NewServer creates a Server over the given configuration and logger.
func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: log,
	}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/stl/flat", s.flatLithophane)
	mux.HandleFunc("/healthz", s.health)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the LithoStream Server!"))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// flatLithophane converts an uploaded image into a flat lithophane STL.
// Form fields not supplied fall back to the configured defaults.
func (s *Server) flatLithophane(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.httpError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	defaults := s.cfg.Litho
	params := litho.Params{
		MinThick:         s.formFloat(r, "min_thickness", defaults.MinThickness),
		MaxThick:         s.formFloat(r, "max_thickness", defaults.MaxThickness),
		FrameThick:       s.formFloat(r, "frame_thick_mm", defaults.FrameThickness),
		FrameExtraHeight: s.formFloat(r, "frame_height_mm", defaults.FrameHeight),
		Resolution:       s.formFloat(r, "resolution", defaults.Resolution),
	}
	widthMM := s.formFloat(r, "width_mm", defaults.WidthMM)
	heightMM := s.formFloat(r, "height_mm", defaults.HeightMM)

	img, err := imgutil.Decode(content)
	if err != nil {
		s.httpError(w, err)
		return
	}
	gray := imgutil.ToGray(img)

	// Landscape images get the landscape orientation of the panel.
	if b := gray.Bounds(); b.Dx() > b.Dy() {
		widthMM, heightMM = heightMM, widthMM
	}

	// The frame grows the grid, so shrink the relief to keep the
	// requested outer dimensions.
	if params.FrameThick > 0 {
		widthMM -= 2 * params.FrameThick
		heightMM -= 2 * params.FrameThick
	}

	gray, err = imgutil.Resize(gray, widthMM, heightMM, params.Resolution)
	if err != nil {
		s.httpError(w, err)
		return
	}

	grid, err := imgutil.Intensity(gray)
	if err != nil {
		s.httpError(w, err)
		return
	}

	buf, err := litho.Generate(grid, params)
	if err != nil {
		s.httpError(w, err)
		return
	}

	// Persist the artifact, serve it, then clean it up.
	stlPath := fsutil.TempFilename(s.cfg.Files.TempDir, "stl")
	if err := fsutil.WriteFileAtomic(stlPath, buf, 0o644); err != nil {
		s.httpError(w, fmt.Errorf("persist STL: %w", err))
		return
	}
	defer s.removeFile(stlPath)

	base := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if base == "" {
		base = "lithophane"
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".stl"))
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	if _, err := w.Write(buf); err != nil {
		s.log.Warn("write response", zap.Error(err))
		return
	}

	s.log.Info("lithophane generated",
		zap.String("file", header.Filename),
		zap.String("artifact", stlPath),
		zap.Int("stl_bytes", len(buf)),
		zap.Float64("width_mm", widthMM),
		zap.Float64("height_mm", heightMM))
}

func (s *Server) formFloat(r *http.Request, name string, def float64) float64 {
	raw := r.FormValue(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.log.Debug("bad form value, using default",
			zap.String("field", name), zap.String("value", raw))
		return def
	}
	return v
}

func (s *Server) httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, litho.ErrInvalidParameter), errors.Is(err, litho.ErrUnsupportedInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, litho.ErrInvalidGeometry):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("request failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) removeFile(path string) {
	if err := os.Remove(path); err != nil {
		s.log.Debug("remove artifact", zap.String("path", path), zap.Error(err))
		return
	}
	s.log.Debug("artifact removed", zap.String("path", path))
}
