package app

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"cvbsd/pkg/cvbs"
)

// Status is the decoder state reported on the web api and the mqtt
// topic.
type Status struct {
	TimeStamp     time.Time
	Format        string
	Locked        bool
	DisplayReady  bool
	FramesDecoded uint64
	FieldsDecoded uint64
	SyncErrors    uint64
	FormatChanges uint64
	Levels        *LevelStatus `json:",omitempty"`
	Clipped       uint64
	Peak          int16
}

// LevelStatus reports the learned signal levels in raw ADC units.
type LevelStatus struct {
	SyncTip   float64
	White     float64
	Threshold float64
	Blanking  float64
	Black     float64
}

// decoderStatus assembles the current decoder status. It reads decoder
// state owned by the decode goroutine, so only that goroutine may call
// it; everybody else reads the snapshot kept by updateState.
func (app *App) decoderStatus() Status {
	st := app.decoder.Stats()

	s := Status{
		TimeStamp:     time.Now(),
		Format:        app.decoder.Format().String(),
		Locked:        app.decoder.Locked(),
		DisplayReady:  app.decoder.DisplayReady(),
		FramesDecoded: st.FramesDecoded,
		FieldsDecoded: st.FieldsDecoded,
		SyncErrors:    st.SyncErrors,
		FormatChanges: st.FormatChanges,
	}

	if lv, ok := app.decoder.Levels(); ok {
		s.Levels = &LevelStatus{
			SyncTip:   lv.SyncTip,
			White:     lv.White,
			Threshold: lv.Threshold,
			Blanking:  lv.Blanking,
			Black:     lv.Black,
		}
	}

	if cs, ok := app.source.(interface{ ClipStats() (uint64, int16) }); ok {
		s.Clipped, s.Peak = cs.ClipStats()
	}

	return s
}

// updateState refreshes the status snapshot served to the web handlers.
// Called by the decode goroutine after every processed chunk and after
// every applied format change.
func (app *App) updateState() {
	s := app.decoderStatus()
	geo := app.decoder.Geometry()

	app.state.Lock()
	app.state.status = s
	app.state.geo = geo
	app.state.Unlock()
}

// currentState returns the last snapshot taken by the decode goroutine.
func (app *App) currentState() (Status, cvbs.Geometry) {
	app.state.Lock()
	defer app.state.Unlock()

	return app.state.status, app.state.geo
}

// queueFormat hands a format selection over to the decode goroutine.
// When several selections pile up before the decode loop gets to them,
// only the latest one is kept.
func (app *App) queueFormat(f cvbs.Format) {
	for {
		select {
		case app.formatChange <- f:
			return
		case <-app.formatChange:
		}
	}
}

// applyPendingFormat reconfigures the decoder when a format selection
// is queued. Runs on the decode goroutine.
func (app *App) applyPendingFormat() {
	select {
	case f := <-app.formatChange:
		app.decoder.SetFormat(f)
		app.updateState()
	default:
	}
}

// HandleStatus is the get decoder status web handler.
func (app *App) HandleStatus() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request status")

		s, _ := app.currentState()
		return ctx.JSON(s)
	}
}

// HandleFormat is the select video format web handler. The format name
// is given as path parameter, e.g. PUT /format/ntsc. The selection is
// queued and takes effect on the decode goroutine.
func (app *App) HandleFormat() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		name := ctx.Params("format")
		debug.InfoLog.Printf("web request format %q", name)

		format, ok := cvbs.ParseFormat(name)
		if !ok {
			ctx.Status(fiber.StatusBadRequest)
			return ctx.JSON(fiber.Map{"error": "unknown format", "format": name})
		}

		app.queueFormat(format)
		return ctx.JSON(fiber.Map{"format": format.String()})
	}
}
