package app

import (
	"bytes"
	"image"
	"image/png"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"cvbsd/pkg/cvbs"
)

// HandleFrame serves the most recently decoded frame as a grayscale
// PNG. While no frame has been decoded yet the handler answers 503.
func (app *App) HandleFrame() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request frame")

		_, geo := app.currentState()
		pix := make([]byte, cvbs.FrameWidth*geo.FrameHeight)

		gen, ok := app.decoder.Frame(pix)
		if !ok {
			ctx.Status(fiber.StatusServiceUnavailable)
			return ctx.JSON(fiber.Map{"error": "no frame decoded yet"})
		}

		img := &image.Gray{
			Pix:    pix,
			Stride: cvbs.FrameWidth,
			Rect:   image.Rect(0, 0, cvbs.FrameWidth, geo.FrameHeight),
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			debug.ErrorLog.Printf("encoding frame: %v", err)
			ctx.Status(fiber.StatusInternalServerError)
			return ctx.JSON(fiber.Map{"error": "frame encoding failed"})
		}

		debug.DebugLog.Printf("serving frame generation %d, %d bytes png", gen, buf.Len())
		ctx.Set(fiber.HeaderContentType, "image/png")
		return ctx.Send(buf.Bytes())
	}
}
