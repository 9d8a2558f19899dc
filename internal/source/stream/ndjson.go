package stream

import (
	"encoding/json"
	"fmt"

	"github.com/vercel/flags-sub000/internal/datafile"
)

// messageType enumerates the wire envelope's "type" field.
// Every line on the stream is one JSON object shaped
// {"type": "datafile", "data": <Datafile>} or {"type": "ping"}; any other
// type is logged and skipped so the SDK tolerates new message kinds added
// server-side without breaking old clients.
type messageType string

const (
	messageDatafile messageType = "datafile"
	messagePing     messageType = "ping"
)

type envelope struct {
	Type messageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeLine parses one NDJSON line's {type, data} envelope. It returns a
// non-nil Datafile only for a "datafile" message; a "ping" yields (nil,
// "", nil) as a silent keepalive, and an unrecognized type yields (nil,
// the type, nil) so the caller can log it without treating the line as
// malformed. A line with no type at all is reported as malformed.
func decodeLine(line []byte) (df *datafile.Datafile, unknownType string, err error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, "", err
	}

	switch env.Type {
	case messageDatafile:
		var parsed datafile.Datafile
		if err := json.Unmarshal(env.Data, &parsed); err != nil {
			return nil, "", fmt.Errorf("datafile message: %w", err)
		}
		return &parsed, "", nil
	case messagePing:
		return nil, "", nil
	case "":
		return nil, "", fmt.Errorf("message has no type")
	default:
		return nil, string(env.Type), nil
	}
}
