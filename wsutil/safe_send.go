package wsutil

import (
	"encoding/json"
	"log/slog"
)

// SafeSend sends data to a channel without blocking or panicking. A nil, full or closed
// channel drops the message; a recovered panic is logged.
func SafeSend(ch chan []byte, data []byte) {
	if ch == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "panic", r)
		}
	}()
	select {
	case ch <- data:
	default:
		slog.Warn("send buffer full, dropping message", "tag", "wsutil")
	}
}

// SendJSON marshals v and delivers it with SafeSend.
func SendJSON(ch chan []byte, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message", "tag", "wsutil", "err", err)
		return
	}
	SafeSend(ch, data)
}

// ErrorMsg is the reply to a rejected client action.
type ErrorMsg struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendError replies with {type: "error", success: false, message}.
func SendError(ch chan []byte, message string) {
	SendJSON(ch, ErrorMsg{Type: "error", Success: false, Message: message})
}
