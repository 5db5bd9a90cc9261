package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

const defaultLevel = 3

// Normalize converts a raw decoded frame into an ingest-ready LogMessage.
//
// time_nano is interpreted as milliseconds since epoch -- a quirk carried
// from the upstream schema, which names the field "nanoseconds" but the
// engine in practice populates with millisecond values. See the design
// notes for why this is not "fixed" here.
//
// line is unpacked in two modes: if it parses as a JSON object, "message"
// and "level" are pulled out of it (context is everything else plus
// source); otherwise the raw bytes become the message verbatim.
func Normalize(frame *RawFrame) (*LogMessage, error) {
	ts, err := convertTimeNano(frame.TimeNano)
	if err != nil {
		return nil, fmt.Errorf("normalizing timestamp: %w", err)
	}

	message, level, context, err := unpackLine(frame.Line, frame.Source)
	if err != nil {
		return nil, fmt.Errorf("normalizing line: %w", err)
	}

	return &LogMessage{
		Timestamp: ts,
		Message:   message,
		Level:     level,
		Context:   context,
	}, nil
}

// convertTimeNano interprets ms as milliseconds since epoch and reports an
// error if the value is outside the range this implementation is willing to
// represent as a valid instant.
func convertTimeNano(ms int64) (time.Time, error) {
	const (
		// Bounds mirror the representable range of the original
		// implementation's millisecond-based timestamp type. Any realistic
		// engine-supplied value falls well inside this window; the check
		// exists to reject clearly corrupt frames rather than to guard
		// against anything Go's time package can't otherwise represent.
		minMillis = -8_210_266_876_800_000
		maxMillis = 8_210_266_876_800_000
	)
	if ms < minMillis || ms > maxMillis {
		return time.Time{}, fmt.Errorf("time_nano %d out of representable range", ms)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// unpackLine implements the dual-mode message body unpacking: JSON object,
// or plain UTF-8 text.
func unpackLine(line []byte, source string) (message string, level int32, context map[string]any, err error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return unpackPlainText(line, source)
	}
	// A trailing token after a complete JSON value (e.g. "1 2") means the
	// line as a whole was never valid JSON to begin with.
	if dec.More() {
		return unpackPlainText(line, source)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return "", 0, nil, fmt.Errorf("invalid or unexpected format")
	}

	message = ""
	if v, present := obj["message"]; present {
		if s, ok := v.(string); ok {
			message = s
		}
	}

	level = defaultLevel
	if v, present := obj["level"]; present {
		n, ok := v.(json.Number)
		if !ok {
			return "", 0, nil, fmt.Errorf("level %v is not an integer", v)
		}
		i, err := n.Int64()
		if err != nil {
			return "", 0, nil, fmt.Errorf("level %q is not an integer", n.String())
		}
		level = int32(i)
	}

	context = make(map[string]any, len(obj))
	for k, v := range obj {
		if k == "message" || k == "level" {
			continue
		}
		context[k] = v
	}
	context["source"] = source

	return message, level, context, nil
}

func unpackPlainText(line []byte, source string) (message string, level int32, context map[string]any, err error) {
	if !utf8.Valid(line) {
		return "", 0, nil, fmt.Errorf("line is not valid UTF-8")
	}
	return string(line), defaultLevel, map[string]any{"source": source}, nil
}
