package app

import (
	"fmt"
	"net/url"
	"sync"

	"cvbsd/pkg/app/config"
	"cvbsd/pkg/cvbs"
	"cvbsd/pkg/mqtt"
	"cvbsd/pkg/source"
	"cvbsd/pkg/wavwriter"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// decoder turns the sample stream into frames
	decoder *cvbs.Decoder

	// source delivers the sample stream
	source source.Source

	// recorder optionally writes the stream to a wav file
	recorder *wavwriter.Writer

	// mqttData is the last status published to the mqtt broker
	mqttData struct {
		sync.Mutex
		status Status
	}

	// state is the decoder status snapshot served to the web handlers.
	// The decoder itself is owned by the decode goroutine; the handlers
	// only ever read this snapshot.
	state struct {
		sync.Mutex
		status Status
		geo    cvbs.Geometry
	}

	// formatChange carries format selections from the web api into the
	// decode goroutine, which is the only one allowed to reconfigure
	// the decoder.
	formatChange chan cvbs.Format

	// quit stops the decode service loop
	quit chan struct{}

	// restart signals application restart
	restart chan struct{}
	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the web server URL and the video format and initializes
// the main app structure.
func New(cfg *config.Config) (*App, error) {
	u, err := url.Parse(cfg.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", cfg.Webserver.URL, err.Error())
		return &App{}, err
	}

	format, ok := cvbs.ParseFormat(cfg.Format)
	if !ok {
		err := fmt.Errorf("unknown video format %q", cfg.Format)
		debug.ErrorLog.Print(err)
		return &App{}, err
	}

	return &App{
		config:    cfg,
		urlParsed: u,

		web:     fiber.New(),
		mqtt:    mqtt.New(),
		decoder: cvbs.New(format),

		formatChange: make(chan cvbs.Format, 1),

		quit:     make(chan struct{}),
		restart:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.decodeService()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	app.source, err = source.New(source.Config{
		Type:    app.config.Source.Type,
		Path:    app.config.Source.Path,
		Channel: app.config.Source.Channel,
		Pattern: app.config.Source.Pattern,
		Noise:   app.config.Source.Noise,
		Loop:    app.config.Source.Loop,
		Pace:    app.config.Source.Pace,
		Format:  app.decoder.Format(),
	})
	if err != nil {
		debug.ErrorLog.Printf("can't open source: %v", err)
		return err
	}

	if app.config.Record.File != "" {
		if app.recorder, err = wavwriter.New(app.config.Record.File, cvbs.SampleRate); err != nil {
			debug.ErrorLog.Printf("can't open recording file: %v", err)
			return err
		}
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, MODULE); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// Seed the handler snapshot before the decode goroutine and the web
	// server start; from then on only the decode goroutine updates it.
	app.updateState()

	// initDefaultRoutes should always be called last because it may
	// access things which must be initialized before.
	app.initDefaultRoutes()

	return nil
}

// Restart returns the read only restart channel.
// Restart is used to be able to react on application restart. (see cmd/cvbsd.go)
func (app *App) Restart() <-chan struct{} {
	return app.restart
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/cvbsd.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

func (app *App) Close() error {
	if app.quit != nil {
		close(app.quit)
	}

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	if app.source != nil {
		_ = app.source.Close()
	}
	if app.recorder != nil {
		if err := app.recorder.Close(); err != nil {
			debug.ErrorLog.Printf("closing recording: %v", err)
		}
	}
	return nil
}
