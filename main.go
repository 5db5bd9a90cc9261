package main

import (
	"github.com/docker/go-plugins-helpers/sdk"
	"github.com/sirupsen/logrus"

	"github.com/logflowhq/ingest-logdriver/driver"
)

const socketName = "ingest"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := driver.LoadConfig()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	log.SetLevel(cfg.ParsedLogLevel())

	entry := log.WithField("component", "ingest-logdriver")

	h := sdk.NewHandler(`{"Implements": ["LoggingDriver"]}`)
	d := driver.New(cfg, entry)
	d.RegisterHandlers(h)

	entry.WithField("ingest_url", cfg.IngestURL).Info("starting plugin server")
	if err := h.ServeUnix(socketName, 0); err != nil {
		entry.Fatalf("serving unix socket: %v", err)
	}
}
