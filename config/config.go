// Package config reads hcl configuration of commands.
// Sources are merged in order, later values overwrite earlier ones.
//
//	xively { api_key = "..." feed_id = 42 protocol = "http" }
//	mqtt { broker = "tcp://localhost:1883" topic_prefix = "sensors" }
//	bridge { min_interval_sec = 10 spool_path = "/var/lib/xively/spool" }
//	include "local.hcl" { optional = true }
package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/xively"
	"github.com/temoto/xively/helpers"
	"github.com/temoto/xively/log2"
)

const (
	DefaultMinIntervalSec = 5
	DefaultRetryDelaySec  = 13
	DefaultTopicPrefix    = "xively"
)

type Config struct {
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	Xively struct { //nolint:maligned
		APIKey           string `hcl:"api_key"`
		FeedID           int    `hcl:"feed_id"`
		Protocol         string `hcl:"protocol"`
		Host             string `hcl:"host"`
		Port             int    `hcl:"port"`
		NetworkTimeoutMs int    `hcl:"network_timeout_ms"`
		LogDebug         bool   `hcl:"log_debug"`
	} `hcl:"xively"`

	Mqtt struct {
		Broker      string `hcl:"broker"`
		ClientID    string `hcl:"client_id"`
		Username    string `hcl:"username"`
		Password    string `hcl:"password"`
		TopicPrefix string `hcl:"topic_prefix"`
		QoS         int    `hcl:"qos"`
	} `hcl:"mqtt"`

	Bridge struct {
		MinIntervalSec int    `hcl:"min_interval_sec"`
		PollIntervalMs int    `hcl:"poll_interval_ms"`
		SpoolPath      string `hcl:"spool_path"`
		RetryDelaySec  int    `hcl:"retry_delay_sec"`
		// feed values are read back and published when set, 0 disables
		ReadIntervalSec int `hcl:"read_interval_sec"`
	} `hcl:"bridge"`

	_copy_guard sync.Mutex //nolint:unused
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) Protocol() (xively.Protocol, error) {
	if c.Xively.Protocol == "" {
		return xively.ProtocolHTTP, nil
	}
	p, err := xively.ParseProtocol(c.Xively.Protocol)
	return p, errors.Annotate(err, "config xively.protocol")
}

func (c *Config) NetworkTimeout() time.Duration {
	return helpers.DurationDefault(c.Xively.NetworkTimeoutMs, time.Millisecond, 1500*time.Millisecond)
}

// MinInterval is never below DefaultMinIntervalSec, service rate limits more frequent updates.
func (c *Config) MinInterval() time.Duration {
	sec := c.Bridge.MinIntervalSec
	if sec < DefaultMinIntervalSec {
		sec = DefaultMinIntervalSec
	}
	return time.Duration(sec) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return helpers.DurationDefault(c.Bridge.PollIntervalMs, time.Millisecond, time.Second)
}

func (c *Config) RetryDelay() time.Duration {
	return helpers.DurationDefault(c.Bridge.RetryDelaySec, time.Second, DefaultRetryDelaySec*time.Second)
}

// ReadInterval is zero when feed reading is disabled, otherwise never below MinInterval.
func (c *Config) ReadInterval() time.Duration {
	if c.Bridge.ReadIntervalSec <= 0 {
		return 0
	}
	d := time.Duration(c.Bridge.ReadIntervalSec) * time.Second
	if min := c.MinInterval(); d < min {
		d = min
	}
	return d
}

func (c *Config) TopicPrefix() string {
	if c.Mqtt.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.Mqtt.TopicPrefix
}

// Validate checks values required to talk to service, on top of range checks done by ReadConfig.
func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.Xively.APIKey == "" {
		errs = append(errs, errors.NotValidf("xively.api_key empty"))
	}
	if c.Xively.FeedID == 0 {
		errs = append(errs, errors.NotValidf("xively.feed_id missing"))
	}
	errs = append(errs, c.checkRanges()...)
	return helpers.FoldErrors(errs)
}

// checkRanges rejects values that are wrong no matter what other sources add.
func (c *Config) checkRanges() []error {
	var errs []error
	if c.Xively.FeedID < 0 || c.Xively.FeedID > 1<<31-1 {
		errs = append(errs, errors.NotValidf("xively.feed_id=%d", c.Xively.FeedID))
	}
	if c.Xively.Port < 0 || c.Xively.Port > 65535 {
		errs = append(errs, errors.NotValidf("xively.port=%d", c.Xively.Port))
	}
	if _, err := c.Protocol(); err != nil {
		errs = append(errs, err)
	}
	if c.Mqtt.QoS < 0 || c.Mqtt.QoS > 2 {
		errs = append(errs, errors.NotValidf("mqtt.qos=%d", c.Mqtt.QoS))
	}
	for _, d := range []struct {
		name string
		v    int
	}{
		{"xively.network_timeout_ms", c.Xively.NetworkTimeoutMs},
		{"bridge.min_interval_sec", c.Bridge.MinIntervalSec},
		{"bridge.poll_interval_ms", c.Bridge.PollIntervalMs},
		{"bridge.retry_delay_sec", c.Bridge.RetryDelaySec},
		{"bridge.read_interval_sec", c.Bridge.ReadIntervalSec},
	} {
		if d.v < 0 {
			errs = append(errs, errors.NotValidf("%s=%d negative", d.name, d.v))
		}
	}
	return errs
}

// loader merges sources into one Config. Each source is read once,
// seen maps normalized path to the source that included it.
type loader struct {
	log  *log2.Log
	fs   FullReader
	seen map[string]string
	errs []error
}

// load unmarshals source over c, then its includes depth first.
func (l *loader) load(c *Config, source Source, from string) {
	norm := l.fs.Normalize(source.Name)
	if _, ok := l.seen[norm]; ok {
		if from == "" {
			l.errs = append(l.errs, errors.Errorf("config duplicate source=%s", source.Name))
		} else {
			l.errs = append(l.errs, errors.Errorf("config include loop: from=%s include=%s", from, source.Name))
		}
		return
	}
	l.seen[norm] = from
	l.log.Debugf("config source=%s path=%s from=%s", source.Name, norm, from)

	b, err := l.fs.ReadAll(norm)
	switch {
	case err != nil:
		l.errs = append(l.errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	case b == nil && source.Optional:
		return
	case b == nil:
		l.errs = append(l.errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		return
	}
	if err = hcl.Unmarshal(b, c); err != nil {
		l.errs = append(l.errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	includes := c.XXX_Include
	c.XXX_Include = nil
	for _, include := range includes {
		l.load(c, include, source.Name)
	}
}

// ReadConfig merges named sources with their includes and checks value ranges.
// Required values are checked by Validate, so partial configs can be read.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	// includes are relative to first source
	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if dir != "" || osfs.base == "" {
			if err := osfs.SetBase(dir); err != nil {
				return nil, err
			}
			names[0] = name
		}
	}
	c := &Config{}
	l := loader{log: log, fs: fs, seen: make(map[string]string)}
	for _, name := range names {
		l.load(c, Source{Name: name}, "")
	}
	if len(l.errs) == 0 {
		l.errs = c.checkRanges()
	}
	return c, helpers.FoldErrors(l.errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
