//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"
	"time"

	"github.com/inamate/cncview/internal/engine"
	"github.com/inamate/cncview/internal/svgconv"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.DefaultSettings())

	// Create the engine API object
	cncEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	cncEngine.Set("loadProgram", js.FuncOf(loadProgram))
	cncEngine.Set("setArcSegments", js.FuncOf(setArcSegments))
	cncEngine.Set("play", js.FuncOf(play))
	cncEngine.Set("pause", js.FuncOf(pause))
	cncEngine.Set("togglePlay", js.FuncOf(togglePlay))
	cncEngine.Set("reset", js.FuncOf(reset))
	cncEngine.Set("setSpeed", js.FuncOf(setSpeed))
	cncEngine.Set("setView", js.FuncOf(setView))
	cncEngine.Set("setColorMode", js.FuncOf(setColorMode))
	cncEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	cncEngine.Set("render", js.FuncOf(render))
	cncEngine.Set("screenToView", js.FuncOf(screenToView))
	cncEngine.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	cncEngine.Set("getToolPosition", js.FuncOf(getToolPosition))
	cncEngine.Set("getStats", js.FuncOf(getStats))
	cncEngine.Set("getBounds", js.FuncOf(getBounds))
	cncEngine.Set("getSegments", js.FuncOf(getSegments))
	cncEngine.Set("getSummary", js.FuncOf(getSummary))
	cncEngine.Set("exportGCode", js.FuncOf(exportGCode))
	cncEngine.Set("convertSVG", js.FuncOf(convertSVG))

	// Register on global scope
	js.Global().Set("cncEngine", cncEngine)

	// Signal that WASM is ready
	js.Global().Set("cncWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

// --- Command Handlers ---

func loadProgram(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing program text"})
	}

	if _, err := eng.LoadProgram(args[0].String()); err != nil {
		return errorResult(err)
	}

	return js.ValueOf(map[string]interface{}{"ok": true, "summary": eng.GetSummary()})
}

func setArcSegments(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing segment count"})
	}
	if err := eng.SetArcSegments(args[0].Int()); err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "summary": eng.GetSummary()})
}

func play(this js.Value, args []js.Value) interface{} {
	eng.Play()
	return nil
}

func pause(this js.Value, args []js.Value) interface{} {
	eng.Pause()
	return nil
}

func togglePlay(this js.Value, args []js.Value) interface{} {
	eng.TogglePlay()
	return nil
}

func reset(this js.Value, args []js.Value) interface{} {
	eng.Reset()
	return nil
}

func setSpeed(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetSpeed(args[0].Float())
	return nil
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	if err := eng.SetView(args[0].String()); err != nil {
		return errorResult(err)
	}
	return nil
}

func setColorMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	if err := eng.SetColorMode(args[0].String()); err != nil {
		return errorResult(err)
	}
	return nil
}

// tick takes the frame delta in milliseconds, as requestAnimationFrame
// timestamps are.
func tick(this js.Value, args []js.Value) interface{} {
	var dt time.Duration
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		dt = time.Duration(args[0].Float() * float64(time.Millisecond))
	}
	return js.ValueOf(eng.Tick(dt))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("{}")
	}
	return js.ValueOf(eng.Render(args[0].Float(), args[1].Float()))
}

func screenToView(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	x, y := eng.ScreenToView(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float())
	return js.ValueOf(map[string]interface{}{"x": x, "y": y})
}

func getPlaybackState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetPlaybackState())
}

func getToolPosition(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetToolPosition())
}

func getStats(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetStats())
}

func getBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetBounds())
}

func getSegments(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSegments())
}

func getSummary(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSummary())
}

func exportGCode(this js.Value, args []js.Value) interface{} {
	program, err := eng.ExportGCode()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]interface{}{"gcode": program})
}

// convertSVG takes the SVG text and an optional options JSON string.
func convertSVG(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing svg text"})
	}

	opts := svgconv.DefaultOptions()
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[1].String()), &opts); err != nil {
			return errorResult(err)
		}
	}

	program, err := eng.ConvertSVG(strings.NewReader(args[0].String()), opts)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]interface{}{"gcode": program})
}
