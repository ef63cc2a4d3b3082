package apiclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MessageUndecodable is used when a failed response body is not JSON.
	MessageUndecodable = "Unknown API error"
	// MessageNoDetail is used when the error body has no usable detail.
	MessageNoDetail = "API request failed."
)

// Result is the outcome of one round trip: the success payload or exactly
// one error.
type Result struct {
	Payload json.RawMessage
	Err     error
}

func (r Result) Kind() Kind { return KindOf(r.Err) }

// Normalize maps a status code and body onto a Result. It depends on nothing
// but its arguments.
func Normalize(status int, body []byte) Result {
	if status >= 200 && status < 300 {
		if !json.Valid(body) {
			return Result{Err: &NetworkError{Message: "malformed response body"}}
		}
		return Result{Payload: json.RawMessage(body)}
	}
	return Result{Err: &APIError{Status: status, Message: detailMessage(body)}}
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func detailMessage(body []byte) string {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return MessageUndecodable
	}
	envelope, ok := decoded.(map[string]any)
	if !ok {
		return MessageNoDetail
	}
	raw, ok := envelope["detail"]
	if !ok || raw == nil {
		return MessageNoDetail
	}

	switch detail := raw.(type) {
	case string:
		if detail == "" {
			return MessageNoDetail
		}
		return detail
	case []any:
		msg, ok := joinFieldErrors(detail)
		if !ok {
			return MessageNoDetail
		}
		return msg
	default:
		return MessageNoDetail
	}
}

func joinFieldErrors(items []any) (string, bool) {
	if len(items) == 0 {
		return "", false
	}

	// Re-decode through the typed shape; the generic pass above only told us
	// it is a list.
	b, err := json.Marshal(items)
	if err != nil {
		return "", false
	}
	var fields []fieldError
	if err := json.Unmarshal(b, &fields); err != nil {
		return "", false
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, formatLoc(f.Loc)+": "+f.Msg)
	}
	return strings.Join(parts, "; "), true
}

func formatLoc(loc []any) string {
	segs := make([]string, 0, len(loc))
	for _, v := range loc {
		switch s := v.(type) {
		case string:
			segs = append(segs, s)
		case float64:
			segs = append(segs, strconv.FormatFloat(s, 'f', -1, 64))
		default:
			segs = append(segs, fmt.Sprint(s))
		}
	}
	return strings.Join(segs, ".")
}
