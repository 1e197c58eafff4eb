package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/xively"
	"github.com/temoto/xively/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			assert.Equal(t, 1500*time.Millisecond, c.NetworkTimeout())
			assert.Equal(t, 5*time.Second, c.MinInterval())
			assert.Equal(t, time.Second, c.PollInterval())
			assert.Equal(t, 13*time.Second, c.RetryDelay())
			assert.Equal(t, "xively", c.TopicPrefix())
			p, err := c.Protocol()
			assert.NoError(t, err)
			assert.Equal(t, xively.ProtocolHTTP, p)
			assert.Error(t, c.Validate())
		}, ""},

		{"full", `
xively { api_key = "abc123" feed_id = 42 protocol = "https" network_timeout_ms = 300 log_debug = true }
mqtt { broker = "tcp://localhost:1883" topic_prefix = "home/sensors" qos = 1 }
bridge { min_interval_sec = 2 poll_interval_ms = 250 spool_path = "/tmp/spool" }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "abc123", c.Xively.APIKey)
				assert.Equal(t, 42, c.Xively.FeedID)
				assert.True(t, c.Xively.LogDebug)
				assert.Equal(t, 300*time.Millisecond, c.NetworkTimeout())
				assert.Equal(t, 5*time.Second, c.MinInterval())
				assert.Equal(t, 250*time.Millisecond, c.PollInterval())
				assert.Equal(t, "home/sensors", c.TopicPrefix())
				assert.Equal(t, "/tmp/spool", c.Bridge.SpoolPath)
				p, _ := c.Protocol()
				assert.Equal(t, xively.ProtocolHTTPS, p)
				assert.NoError(t, c.Validate())
			}, ""},

		{"include-normalize", `
xively { feed_id = 1 }
include "./empty" {}`,
			nil, ""},

		{"include-optional", `
include "feed-7" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 7, c.Xively.FeedID)
			}, ""},

		{"include-overwrites", `
xively { feed_id = 1 }
include "feed-7" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 7, c.Xively.FeedID)
			}, ""},

		{"read-interval", `bridge { read_interval_sec = 1 }`, func(t testing.TB, c *Config) {
			assert.Equal(t, 5*time.Second, c.ReadInterval(), "raised to min interval")
		}, ""},
		{"read-interval-off", ``, func(t testing.TB, c *Config) {
			assert.Equal(t, time.Duration(0), c.ReadInterval())
		}, ""},

		{"error-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"error-range-qos", `mqtt { qos = 5 }`, nil, "mqtt.qos=5"},
		{"error-range-negative", `bridge { poll_interval_ms = -1 }`, nil, "bridge.poll_interval_ms=-1 negative"},
		{"error-range-in-include", `include "bad-port" {}`, nil, "xively.port=70000"},
		{"error-self-include", `include "test-inline" {}`, nil, "config include loop: from=test-inline include=test-inline"},
		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"empty":        "",
				"feed-7":       "xively{feed_id=7}",
				"include-loop": `include "include-loop" {}`,
				"bad-port":     "xively{port=70000}",
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, cfg)
				}
			} else {
				require.Error(t, err)
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		t.Run(c.name, mkCheck(c))
	}
}

func TestReadConfigDuplicateSource(t *testing.T) {
	t.Parallel()

	fs := NewMockFullReader(map[string]string{"a": "xively{feed_id=7}"})
	cfg, err := ReadConfig(log2.NewTest(t, log2.LDebug), fs, "a", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config duplicate source=a")
	assert.Equal(t, 7, cfg.Xively.FeedID)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	c := &Config{}
	c.Xively.APIKey = "k"
	c.Xively.FeedID = 1
	c.Xively.Protocol = "gopher"
	c.Mqtt.QoS = 3
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown protocol=gopher")
	assert.Contains(t, err.Error(), "mqtt.qos=3")
}

func TestOsFullReader(t *testing.T) {
	t.Parallel()

	dir, err := os.MkdirTemp("", "xively-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(`
xively { api_key = "k" }
include "local.hcl" {}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.hcl"), []byte(`xively { feed_id = 9 }`), 0o600))

	cfg, err := ReadConfig(log2.NewTest(t, log2.LDebug), NewOsFullReader("."), filepath.Join(dir, "main.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.Xively.APIKey)
	assert.Equal(t, 9, cfg.Xively.FeedID)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	c := &Config{}
	_, err := c.NewClient(nil, nil)
	assert.Error(t, err)

	c.Xively.APIKey = "abc123"
	c.Xively.FeedID = 42
	c.Xively.Protocol = "https"
	c.Xively.NetworkTimeoutMs = 200
	layer, err := c.NewLayer()
	require.NoError(t, err)
	assert.NotNil(t, layer.TLS)
	assert.Equal(t, 200*time.Millisecond, layer.Timeout.Get())

	client, err := c.NewClient(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(42), client.Context().FeedID())
	assert.Equal(t, "abc123", client.Context().APIKey())
	assert.Equal(t, xively.ProtocolHTTPS, client.Context().Protocol())
}
