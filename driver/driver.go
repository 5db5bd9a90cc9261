package driver

import (
	"encoding/json"
	"net/http"

	"github.com/docker/go-plugins-helpers/sdk"
	"github.com/sirupsen/logrus"
)

// Driver implements the Docker log driver plugin's StartLogging/StopLogging
// protocol. Plugin.Activate is served by the sdk.Handler itself from the
// manifest passed to sdk.NewHandler in main.go, so Driver never sees it.
type Driver struct {
	cfg      *Config
	registry *Registry
	ingest   Ingester
	log      *logrus.Entry

	// newProcessor is injectable so tests can substitute a Processor whose
	// FIFO open and ingest behavior are controlled deterministically.
	newProcessor func(cfg *Config, ingest Ingester, log *logrus.Entry) *Processor
}

// New creates a Driver that posts to cfg.IngestURL and opens real FIFOs.
func New(cfg *Config, log *logrus.Entry) *Driver {
	return &Driver{
		cfg:          cfg,
		registry:     NewRegistry(),
		ingest:       NewIngestClient(cfg.IngestURL, log),
		log:          log,
		newProcessor: NewProcessor,
	}
}

// RegisterHandlers wires up the two control routes on h.
func (d *Driver) RegisterHandlers(h sdk.Handler) {
	h.HandleFunc("/LogDriver.StartLogging", d.handleStartLogging)
	h.HandleFunc("/LogDriver.StopLogging", d.handleStopLogging)
}

// --- Request/Response types ---

type startLoggingInfo struct {
	ContainerID string `json:"ContainerID"`
}

type startLoggingRequest struct {
	File string           `json:"File"`
	Info startLoggingInfo `json:"Info"`
}

type stopLoggingRequest struct {
	File string `json:"File"`
}

type errResponse struct {
	Err string `json:"Err"`
}

// --- Handlers ---

func (d *Driver) handleStartLogging(w http.ResponseWriter, r *http.Request) {
	var req startLoggingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.log.Debugf("bad StartLogging request: %v", err)
		respondBadRequest(w)
		return
	}

	log := d.log.WithFields(logrus.Fields{
		"fifo_path":    req.File,
		"container_id": req.Info.ContainerID,
	})

	ctx, sig := newStopSignal()
	d.registry.Register(req.File, sig)

	proc := d.newProcessor(d.cfg.Clone(), d.ingest, log)

	go func() {
		defer close(sig.done)
		if err := proc.Process(ctx, req.File); err != nil {
			log.Errorf("processor for %s terminated: %v", req.File, err)
		}
	}()

	log.Info("started logging")
	respondOK(w)
}

func (d *Driver) handleStopLogging(w http.ResponseWriter, r *http.Request) {
	var req stopLoggingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.log.Debugf("bad StopLogging request: %v", err)
		respondBadRequest(w)
		return
	}

	log := d.log.WithField("fifo_path", req.File)

	sig, ok := d.registry.Take(req.File)
	if !ok {
		log.Warn("no task found for container logging to file")
		respondErr(w, "No task found for container logging to file")
		return
	}

	if sig.finished() {
		log.Warn("signal receiver already gone; processor had already finished")
	} else {
		sig.cancel()
		<-sig.done
	}

	log.Info("stopped logging")
	respondOK(w)
}

// --- HTTP helpers ---

func respondOK(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(errResponse{Err: ""})
}

func respondErr(w http.ResponseWriter, msg string) {
	json.NewEncoder(w).Encode(errResponse{Err: msg})
}

func respondBadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errResponse{Err: "Bad Request"})
}
