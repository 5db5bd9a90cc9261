package driver

import "time"

// LogMessage is the ingest-ready form of a decoded log frame.
type LogMessage struct {
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Level     int32          `json:"level"`
	Context   map[string]any `json:"context"`
}
