package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
format: ntsc
source:
  type: raw
  path: /data/capture.s16
  loop: true
  chunksize: 16384
record:
  file: /data/out.wav
debug:
  flag: debug
  file: stderr
webserver:
  url: http://0.0.0.0:8080
  webservices:
    version: true
    status: true
mqtt:
  connection: tcp://127.0.0.1:1883
  interval: 10
  topic: /video/test
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvbsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	c := NewConfig()
	c.Flag.ConfigFile = path
	require.NoError(t, c.LoadConfig())

	assert.Equal(t, "ntsc", c.Format)
	assert.Equal(t, "raw", c.Source.Type)
	assert.Equal(t, "/data/capture.s16", c.Source.Path)
	assert.True(t, c.Source.Loop)
	assert.Equal(t, 16384, c.Source.ChunkSize)
	assert.Equal(t, "/data/out.wav", c.Record.File)
	assert.Equal(t, "http://0.0.0.0:8080", c.Webserver.URL)
	assert.True(t, c.Webserver.Webservices["status"])
	assert.Equal(t, "tcp://127.0.0.1:1883", c.MQTT.Connection)
	assert.Equal(t, 10*time.Second, c.MQTT.Interval)
	assert.Equal(t, "/video/test", c.MQTT.Topic)
	assert.NotNil(t, c.Debug.File)
}

func TestLoadConfigMissingFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = "/nonexistent/cvbsd.yaml"
	assert.Error(t, c.LoadConfig())
}

func TestLogFlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvbsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	c := NewConfig()
	c.Flag.ConfigFile = path
	c.Flag.Debug = "trace"
	require.NoError(t, c.LoadConfig())

	assert.Equal(t, "trace", c.Debug.FlagString)
}

func TestDefaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, "pal", c.Format)
	assert.Equal(t, "simulator", c.Source.Type)
	assert.Positive(t, c.Source.ChunkSize)
	assert.True(t, c.Webserver.Webservices["frame"])
	assert.Equal(t, 5*time.Second, c.MQTT.Interval)
}
