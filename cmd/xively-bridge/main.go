package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/xively/bridge"
	"github.com/temoto/xively/config"
	"github.com/temoto/xively/log2"
	"github.com/temoto/xively/mailbox"
	"github.com/temoto/xively/spool"
)

var log = log2.NewStderr(log2.LInfo)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "xively.hcl", "")
	_ = cmdline.Parse(os.Args[1:])

	if sdnotify("start") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	cfg := config.MustReadConfig(log, config.NewOsFullReader(""), *configPath)
	if cfg.Xively.LogDebug {
		log.SetLevel(log2.LDebug)
	}
	if cfg.Mqtt.Broker == "" {
		log.Fatal("config: mqtt.broker is required")
	}
	client, err := cfg.NewClient(log, nil)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer client.Context().Close()

	var sp *spool.Spool
	if cfg.Bridge.SpoolPath != "" {
		if sp, err = spool.Open(cfg.Bridge.SpoolPath, log); err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
	}

	poller := mailbox.NewPoller(client, cfg.PollInterval(), log)
	b := bridge.New(poller, sp, bridge.Options{
		Log:          log,
		FeedID:       client.Context().FeedID(),
		TopicPrefix:  cfg.TopicPrefix(),
		QoS:          byte(cfg.Mqtt.QoS),
		MinInterval:  cfg.MinInterval(),
		RetryDelay:   cfg.RetryDelay(),
		ReadInterval: cfg.ReadInterval(),
	})
	poller.Start()
	b.Start()

	mc := bridge.NewMqttClient(cfg, b)
	if err := bridge.Connect(mc, 10*time.Second); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	sdnotify(daemon.SdNotifyReady)
	log.Infof("xively-bridge feed=%d broker=%s topic=%s", client.Context().FeedID(), cfg.Mqtt.Broker, b.Topic())

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigch
	log.Infof("signal=%v stopping", s)
	sdnotify("STOPPING=1")

	mc.Disconnect(250)
	poller.Stop()
	poller.Wait()
	// last values get one attempt, failure goes to spool
	if b.Flush() {
		poller.Tick(context.Background())
	}
	b.Stop()
	b.Wait()
	log.Infof("bridge stat=%s client stat=%s", b.Stat().String(), client.Stat().String())
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
