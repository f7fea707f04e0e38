package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inamate/cncview/internal/engine"
	"github.com/inamate/cncview/internal/gcode"
	"github.com/inamate/cncview/internal/svgconv"
	"github.com/inamate/cncview/internal/typeid"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrInvalidField    = errors.New("invalid form field")
)

var gcodeExtensions = map[string]bool{
	".gcode": true,
	".nc":    true,
	".ngc":   true,
	".tap":   true,
	".txt":   true,
}

// Handler serves the stateless parse, upload, convert and export endpoints.
// Every request gets its own engine.
type Handler struct {
	settings  engine.Settings
	maxUpload int64
}

func NewHandler(settings engine.Settings, maxUploadBytes int64) *Handler {
	return &Handler{settings: settings, maxUpload: maxUploadBytes}
}

type parseRequest struct {
	GCode       string `json:"gcode"`
	ArcSegments int    `json:"arcSegments,omitempty"`
}

type exportRequest struct {
	Segments []gcode.Segment `json:"segments"`
}

// ParseResponse is returned from parse and upload.
type ParseResponse struct {
	ProgramID string            `json:"programId"`
	Name      string            `json:"name,omitempty"`
	Summary   engine.Summary    `json:"summary"`
	BBox      gcode.BoundingBox `json:"bbox"`
	Stats     gcode.Statistics  `json:"stats"`
	Segments  []gcode.Segment   `json:"segments"`
	// GCode carries the generated program when the upload was an SVG.
	GCode string `json:"gcode,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Parse handles POST /api/parse.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := h.parse(req.GCode, req.ArcSegments)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Upload handles POST /api/upload (multipart form with "file" field). SVG
// files are converted first, using the same option fields as ConvertSVG.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("file too large (max %d bytes)", h.maxUpload)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	arcSegments, err := intField(r, "arcSegments", 0)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	var (
		resp      *ParseResponse
		generated string
	)

	switch {
	case ext == ".svg":
		var opts svgconv.Options
		if opts, err = svgOptions(r); err != nil {
			break
		}
		if generated, err = svgconv.Convert(file, opts); err != nil {
			break
		}
		resp, err = h.parse(generated, arcSegments)
	case gcodeExtensions[ext]:
		resp, err = h.parseReader(file, arcSegments)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp.Name = header.Filename
	resp.GCode = generated

	slog.Info("program uploaded", "name", header.Filename, "segments", resp.Summary.Segments, "warning", resp.Summary.Warning)
	writeJSON(w, http.StatusOK, resp)
}

// ConvertSVG handles POST /api/convert/svg and answers with the G-code.
func (h *Handler) ConvertSVG(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("file too large (max %d bytes)", h.maxUpload)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	opts, err := svgOptions(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	e := engine.NewEngine(h.settings)
	program, err := e.ConvertSVG(file, opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	name := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	writeGCode(w, sanitizeName(name, "drawing"), program)
}

// Export handles POST /api/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	e := engine.NewEngine(h.settings)
	e.LoadResult(&gcode.Result{Segments: req.Segments})
	program, err := e.ExportGCode()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeGCode(w, sanitizeName(r.URL.Query().Get("name"), "toolpath"), program)
}

func (h *Handler) parse(text string, arcSegments int) (*ParseResponse, error) {
	return h.load(arcSegments, func(e *engine.Engine) (engine.Summary, error) {
		return e.LoadProgram(text)
	})
}

func (h *Handler) parseReader(r io.Reader, arcSegments int) (*ParseResponse, error) {
	return h.load(arcSegments, func(e *engine.Engine) (engine.Summary, error) {
		return e.LoadReader(r)
	})
}

func (h *Handler) load(arcSegments int, fn func(*engine.Engine) (engine.Summary, error)) (*ParseResponse, error) {
	e := engine.NewEngine(h.settings)
	if arcSegments != 0 {
		if err := e.SetArcSegments(arcSegments); err != nil {
			return nil, err
		}
	}

	summary, err := fn(e)
	if err != nil {
		return nil, err
	}

	res := e.Result()
	segments := res.Segments
	if segments == nil {
		segments = []gcode.Segment{}
	}
	return &ParseResponse{
		ProgramID: typeid.NewProgramID(),
		Summary:   summary,
		BBox:      res.BBox,
		Stats:     res.Stats,
		Segments:  segments,
	}, nil
}

func svgOptions(r *http.Request) (svgconv.Options, error) {
	opts := svgconv.DefaultOptions()
	var err error
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"scale", &opts.Scale},
		{"feedRate", &opts.FeedRate},
		{"cutDepth", &opts.CutDepth},
		{"safeZ", &opts.SafeZ},
	} {
		if *f.dst, err = floatField(r, f.name, *f.dst); err != nil {
			return opts, err
		}
	}
	if opts.CurveSegments, err = intField(r, "curveSegments", opts.CurveSegments); err != nil {
		return opts, err
	}
	return opts, nil
}

func floatField(r *http.Request, name string, def float64) (float64, error) {
	s := r.FormValue(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def, fmt.Errorf("%w: %s", ErrInvalidField, name)
	}
	return v, nil
}

func intField(r *http.Request, name string, def int) (int, error) {
	s := r.FormValue(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("%w: %s", ErrInvalidField, name)
	}
	return v, nil
}

func sanitizeName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

func writeGCode(w http.ResponseWriter, name, program string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.gcode"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(program)))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, program)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyProgram),
		errors.Is(err, engine.ErrNoProgram),
		errors.Is(err, gcode.ErrInvalidArcSegments),
		errors.Is(err, svgconv.ErrInvalidOptions),
		errors.Is(err, ErrInvalidField):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrUnsupportedFile):
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
	case errors.Is(err, svgconv.ErrInvalidSVG),
		errors.Is(err, svgconv.ErrPathData),
		errors.Is(err, svgconv.ErrNoGeometry):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
