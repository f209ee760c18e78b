package uds

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/modoterra/logkeep/pkg/core"
)

var reqCounter atomic.Uint64

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeReq MsgType = "req"
	MsgTypeRes MsgType = "res"
	MsgTypeEvt MsgType = "evt"
)

// Message is the NDJSON envelope for all communication.
type Message struct {
	Type   MsgType         `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// UnmarshalData decodes the message payload into v.
func (m Message) UnmarshalData(v any) error {
	if len(m.Data) == 0 {
		return errors.New("empty message data")
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", m.Method, err)
	}
	return nil
}

func newMessage(typ MsgType, id, method string, data any) (Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Message{}, err
		}
		raw = b
	}
	return Message{Type: typ, ID: id, Method: method, Data: raw}, nil
}

// NewRequest creates a new request message with a unique ID.
func NewRequest(method string, data any) (Message, error) {
	return newMessage(MsgTypeReq, fmt.Sprintf("req-%d", reqCounter.Add(1)), method, data)
}

// NewResponse creates a response to a request.
func NewResponse(reqID, method string, data any) (Message, error) {
	return newMessage(MsgTypeRes, reqID, method, data)
}

// NewErrorResponse creates an error response.
func NewErrorResponse(reqID, method, errMsg string) Message {
	return Message{
		Type:   MsgTypeRes,
		ID:     reqID,
		Method: method,
		Error:  errMsg,
	}
}

// NewEvent creates a server-pushed event.
func NewEvent(method string, data any) (Message, error) {
	return newMessage(MsgTypeEvt, fmt.Sprintf("evt-%d", reqCounter.Add(1)), method, data)
}

// Methods
const (
	MethodPing            = "Ping"
	MethodListLogs        = "ListLogs"
	MethodViewLog         = "ViewLog"
	MethodTrimLog         = "TrimLog"
	MethodTrimAllLogs     = "TrimAllLogs"
	MethodClearLog        = "ClearLog"
	MethodClearAllLogs    = "ClearAllLogs"
	MethodTestLog         = "TestLog"
	MethodReloadConfig    = "ReloadConfig"
	MethodLogsSubscribe   = "LogsSubscribe"
	MethodLogsUnsubscribe = "LogsUnsubscribe"

	EventLogsDelta = "logs.delta"
	EventLogsLine  = "logs.line"
)

// PingResponse is the response to a Ping request.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// LogRequest names the log a request operates on.
type LogRequest struct {
	Name string `json:"name"`
}

// ListLogsResponse lists every configured log in configuration order.
type ListLogsResponse struct {
	Logs []core.LogFile `json:"logs"`
}

// TestLogResponse acknowledges a TestLog request.
type TestLogResponse struct {
	OK bool `json:"ok"`
}

// ReloadConfigResponse reports the outcome of a ReloadConfig request.
// Validation problems are returned as warnings; the reload still applies.
type ReloadConfigResponse struct {
	OK       bool     `json:"ok"`
	Logs     int      `json:"logs"`
	Warnings []string `json:"warnings,omitempty"`
}

// LogsDelta carries status changes between watch cycles.
type LogsDelta struct {
	Added   []core.LogFile `json:"added,omitempty"`
	Updated []core.LogFile `json:"updated,omitempty"`
	Removed []string       `json:"removed,omitempty"`
}

// HasChanges returns true if the delta contains any changes.
func (d LogsDelta) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Updated) > 0 || len(d.Removed) > 0
}
