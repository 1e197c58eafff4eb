package bridge

import (
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/xively/config"
)

// NewMqttClient configures client that subscribes bridge on every connect.
func NewMqttClient(cfg *config.Config, b *Bridge) mqtt.Client {
	mqtt.ERROR = b.log
	mqtt.CRITICAL = b.log

	clientID := cfg.Mqtt.ClientID
	if clientID == "" {
		host, _ := os.Hostname()
		clientID = fmt.Sprintf("xively-bridge-%s-%d", host, os.Getpid())
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Mqtt.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Mqtt.Username).
		SetPassword(cfg.Mqtt.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(30 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			if err := b.Subscribe(c); err != nil {
				b.log.Error(err)
			}
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			b.log.Infof("mqtt connection lost err=%v", err)
		})
	return mqtt.NewClient(opts)
}

func Connect(c mqtt.Client, timeout time.Duration) error {
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return errors.Timeoutf("mqtt connect")
	}
	return errors.Annotate(token.Error(), "mqtt connect")
}
