package config

import (
	"crypto/tls"

	"github.com/juju/errors"
	"github.com/temoto/xively"
	"github.com/temoto/xively/comm"
	"github.com/temoto/xively/log2"
)

// NewLayer returns portable layer with configured timeout, TLS for https.
func (c *Config) NewLayer() (*comm.NetLayer, error) {
	p, err := c.Protocol()
	if err != nil {
		return nil, err
	}
	var tlsConfig *tls.Config
	if p == xively.ProtocolHTTPS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return comm.NewNetLayer(c.NetworkTimeout(), tlsConfig), nil
}

// NewClient with nil layer uses NewLayer.
func (c *Config) NewClient(log *log2.Log, layer comm.Layer) (*xively.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p, _ := c.Protocol()
	if layer == nil {
		nl, err := c.NewLayer()
		if err != nil {
			return nil, errors.Annotate(err, "config client")
		}
		layer = nl
	}
	xctx := xively.NewContext(p, c.Xively.APIKey, int32(c.Xively.FeedID))
	return xively.NewClient(xctx, xively.Options{
		Host:  c.Xively.Host,
		Port:  c.Xively.Port,
		Layer: layer,
		Log:   log,
	}), nil
}
