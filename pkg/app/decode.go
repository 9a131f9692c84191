package app

import (
	"io"
	"time"

	"github.com/womat/debug"
)

// decodeService is the decode loop: read a chunk from the source, feed
// it to the decoder, optionally record it, and publish status changes.
// It is designed to run in a separate go function (see app.Run).
func (app *App) decodeService() {
	chunk := make([]int16, app.config.Source.ChunkSize)

	for {
		select {
		case <-app.quit:
			return
		default:
		}

		app.applyPendingFormat()

		n, err := app.source.Read(chunk)
		if n > 0 {
			if app.recorder != nil {
				if werr := app.recorder.WriteSamples(chunk[:n]); werr != nil {
					debug.ErrorLog.Printf("recording samples: %v", werr)
					app.recorder = nil
				}
			}

			app.decoder.ProcessBuffer(chunk[:n])
			app.updateState()
			app.publishOnChange()
		}

		if err == io.EOF {
			debug.InfoLog.Print("capture file exhausted, decode loop ends")
			app.publish()
			return
		}
		if err != nil {
			debug.ErrorLog.Printf("reading source: %v", err)
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// publishOnChange sends the decoder status to the mqtt broker when the
// lock state or the frame counter changed significantly, or the
// configured interval has elapsed. Everything else would flood the
// broker at chunk rate.
func (app *App) publishOnChange() {
	s, _ := app.currentState()

	app.mqttData.Lock()
	defer app.mqttData.Unlock()

	last := app.mqttData.status
	deltaT := s.TimeStamp.Sub(last.TimeStamp)

	if s.Locked == last.Locked &&
		s.Format == last.Format &&
		deltaT < app.config.MQTT.Interval {
		return
	}

	app.mqttData.status = s
	app.sendMQTT(app.config.MQTT.Topic, s)
}

// publish sends the current status unconditionally.
func (app *App) publish() {
	s, _ := app.currentState()

	app.mqttData.Lock()
	app.mqttData.status = s
	app.mqttData.Unlock()

	app.sendMQTT(app.config.MQTT.Topic, s)
}

// sendMQTT sends a message struct to the mqtt broker.
func (app *App) sendMQTT(topic string, message interface{}) {
	go func(t string, r interface{}) {
		debug.TraceLog.Printf("prepare mqtt message %v %v", t, r)

		if err := app.mqtt.PublishJSON(t, r); err != nil {
			debug.ErrorLog.Printf("sendMQTT: %v", err)
		}
	}(topic, message)
}
