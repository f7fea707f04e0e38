package engine

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/inamate/cncview/internal/gcode"
	"github.com/inamate/cncview/internal/playback"
	"github.com/inamate/cncview/internal/svgconv"
)

var (
	ErrEmptyProgram     = errors.New("program text is empty")
	ErrNoProgram        = errors.New("no program loaded")
	ErrUnknownView      = errors.New("unknown camera view")
	ErrUnknownColorMode = errors.New("unknown color mode")
)

const viewPadding = 20

// Engine owns the loaded program and its playback simulator. It processes
// commands from the frontend and answers queries as JSON.
type Engine struct {
	settings Settings

	// Program state
	text    string
	result  *gcode.Result
	summary Summary

	sim *playback.Simulator

	// View state
	view   CameraView
	colors ColorMode
}

// NewEngine creates an engine with no program loaded.
func NewEngine(settings Settings) *Engine {
	if settings.ArcSegments < 1 {
		settings.ArcSegments = gcode.DefaultArcSegments
	}
	return &Engine{
		settings: settings,
		sim:      playback.New(settings.EventBuffer),
		view:     ViewTop,
		colors:   ColorDefault,
	}
}

// --- Commands (frontend → engine) ---

// LoadProgram parses G-code text and rewinds playback to its start.
func (e *Engine) LoadProgram(text string) (Summary, error) {
	if strings.TrimSpace(text) == "" {
		return Summary{}, ErrEmptyProgram
	}
	res, err := gcode.Parse(text, gcode.Options{ArcSegments: e.settings.ArcSegments})
	if err != nil {
		return Summary{}, err
	}
	e.text = text
	e.load(res)
	return e.summary, nil
}

// LoadReader parses G-code streamed from r and rewinds playback to its start.
func (e *Engine) LoadReader(r io.Reader) (Summary, error) {
	var buf strings.Builder
	res, err := gcode.ParseReader(io.TeeReader(r, &buf), gcode.Options{ArcSegments: e.settings.ArcSegments})
	if err != nil {
		return Summary{}, err
	}
	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return Summary{}, ErrEmptyProgram
	}
	e.text = text
	e.load(res)
	return e.summary, nil
}

// LoadResult installs an already parsed program.
func (e *Engine) LoadResult(res *gcode.Result) Summary {
	e.text = ""
	e.load(res)
	return e.summary
}

func (e *Engine) load(res *gcode.Result) {
	e.result = res
	e.summary = e.settings.Summarize(res)
	e.sim.SetSegments(res.Segments)
}

// SetArcSegments changes the arc tessellation and re-parses the current
// program text, if any.
func (e *Engine) SetArcSegments(n int) error {
	opts := gcode.Options{ArcSegments: n}
	if err := opts.Validate(); err != nil {
		return err
	}
	e.settings.ArcSegments = n
	if e.text == "" {
		return nil
	}
	res, err := gcode.Parse(e.text, opts)
	if err != nil {
		return err
	}
	e.load(res)
	return nil
}

// Play starts playback.
func (e *Engine) Play() {
	e.sim.Play()
}

// Pause stops playback.
func (e *Engine) Pause() {
	e.sim.Pause()
}

// TogglePlay toggles play/pause state. A finished program restarts.
func (e *Engine) TogglePlay() {
	if e.sim.Status() == playback.StatusComplete {
		e.sim.Reset()
	}
	e.sim.Toggle()
}

// Reset rewinds playback to the first segment.
func (e *Engine) Reset() {
	e.sim.Reset()
}

// SetSpeed sets the playback feed multiplier.
func (e *Engine) SetSpeed(multiplier float64) {
	e.sim.SetSpeed(multiplier)
}

// SetView selects the projection used by Render.
func (e *Engine) SetView(name string) error {
	v, err := ParseCameraView(name)
	if err != nil {
		return err
	}
	e.view = v
	return nil
}

// SetColorMode selects the stroke coloring used by Render.
func (e *Engine) SetColorMode(name string) error {
	m, err := ParseColorMode(name)
	if err != nil {
		return err
	}
	e.colors = m
	return nil
}

// Tick advances playback by dt and returns the events it produced as JSON.
// This is called once per animation frame from the frontend.
func (e *Engine) Tick(dt time.Duration) string {
	e.sim.Update(dt)
	return e.DrainEvents()
}

// DrainEvents returns pending playback events as JSON.
func (e *Engine) DrainEvents() string {
	events := e.sim.DrainEvents()
	if events == nil {
		events = []playback.Event{}
	}
	data, _ := json.Marshal(events)
	return string(data)
}

// --- Queries (frontend ← engine) ---

// Render projects the toolpath for a width × height canvas and returns the
// view transform, draw batches and tool marker as JSON.
func (e *Engine) Render(width, height float64) string {
	var segments []gcode.Segment
	if e.result != nil {
		segments = e.result.Segments
	}

	bounds := e.view.Bounds(segments)
	transform := FitView(bounds, width, height, viewPadding)
	batches := CompileToolpath(segments, e.sim.Index(), e.view, e.colors)
	if batches == nil {
		batches = []DrawBatch{}
	}

	tool := e.sim.Position()
	tx, ty := e.view.Project(gcode.Point3D{X: tool.X, Y: tool.Y, Z: tool.Z})

	data, _ := json.Marshal(map[string]interface{}{
		"view":      e.view,
		"transform": transform.ToSlice(),
		"batches":   batches,
		"tool": map[string]interface{}{
			"x":       tx,
			"y":       ty,
			"visible": !e.summary.HideToolhead,
		},
	})
	return string(data)
}

// ScreenToView maps a canvas point back into view-plane millimetres.
func (e *Engine) ScreenToView(x, y, width, height float64) (float64, float64) {
	var segments []gcode.Segment
	if e.result != nil {
		segments = e.result.Segments
	}
	m := FitView(e.view.Bounds(segments), width, height, viewPadding)
	return m.Invert().TransformPoint(x, y)
}

// GetPlaybackState returns the current playback state as JSON.
func (e *Engine) GetPlaybackState() string {
	data, _ := json.Marshal(e.sim.State())
	return string(data)
}

// GetToolPosition returns the current tool position as JSON.
func (e *Engine) GetToolPosition() string {
	data, _ := json.Marshal(e.sim.Position())
	return string(data)
}

// GetStats returns the program statistics as JSON.
func (e *Engine) GetStats() string {
	if e.result == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.result.Stats)
	return string(data)
}

// GetBounds returns the program bounding box as JSON. Unbounded axes are null.
func (e *Engine) GetBounds() string {
	if e.result == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.result.BBox)
	return string(data)
}

// GetSegments returns every segment as JSON.
func (e *Engine) GetSegments() string {
	if e.result == nil || len(e.result.Segments) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(e.result.Segments)
	return string(data)
}

// GetSummary returns the load summary as JSON.
func (e *Engine) GetSummary() string {
	data, _ := json.Marshal(e.summary)
	return string(data)
}

// Result returns the loaded program, or nil.
func (e *Engine) Result() *gcode.Result {
	return e.result
}

// Summary returns the load summary of the current program.
func (e *Engine) Summary() Summary {
	return e.summary
}

// Settings returns the engine settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// ExportGCode writes the loaded toolpath back out as G-code.
func (e *Engine) ExportGCode() (string, error) {
	if e.result == nil || len(e.result.Segments) == 0 {
		return "", ErrNoProgram
	}
	return gcode.Export(e.result.Segments), nil
}

// ConvertSVG turns an SVG document into G-code. The result is not loaded.
func (e *Engine) ConvertSVG(r io.Reader, opts svgconv.Options) (string, error) {
	return svgconv.Convert(r, opts)
}
