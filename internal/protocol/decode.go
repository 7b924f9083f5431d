package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Decode parses one inbound frame. It reports false for anything that is not
// a JSON object with a string type; callers drop such frames. Every other
// member is decoded on its own, so a malformed sibling never costs the frame.
func Decode(data []byte) (Frame, bool) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return Frame{}, false
	}

	var f Frame
	if err := json.Unmarshal(members["type"], &f.Type); err != nil || f.Type == "" {
		return Frame{}, false
	}

	_ = json.Unmarshal(members["id"], &f.ID)
	_ = json.Unmarshal(members["message"], &f.Message)

	if raw, ok := members["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err == nil {
			f.Success = &success
		}
	}
	if raw, ok := members["error"]; ok && f.Message == "" {
		var e struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &e); err == nil {
			f.Message = e.Message
		}
	}

	if raw, ok := members["event"]; ok {
		f.Event = decodeEvent(raw)
	}
	return f, true
}

// decodeEvent splits the event member into its envelopes. It returns nil when
// the member is not an object.
func decodeEvent(raw json.RawMessage) *EventPayload {
	var envelopes map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelopes); err != nil || envelopes == nil {
		return nil
	}
	return &EventPayload{
		Snapshot: decodeEnvelope(envelopes["a"]),
		Delta:    decodeEnvelope(envelopes["c"]),
	}
}

func decodeEnvelope(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

// scalar is a raw state value as it arrived on the wire.
type scalar struct {
	isString bool
	isNumber bool
	str      string
	num      json.Number
}

// parseScalar inspects a raw JSON value. Objects, arrays, booleans and null
// come back as a zero scalar.
func parseScalar(raw json.RawMessage) scalar {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return scalar{}
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return scalar{}
		}
		return scalar{isString: true, str: s}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return scalar{}
		}
		return scalar{isNumber: true, num: n}
	default:
		return scalar{}
	}
}

// text returns the value's textual form for numeric parsing.
func (s scalar) text() (string, bool) {
	switch {
	case s.isNumber:
		return s.num.String(), true
	case s.isString:
		return s.str, true
	default:
		return "", false
	}
}

// parseReal parses a non-negative finite real.
func parseReal(text string) (float64, bool) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// parseInteger parses a non-negative integer, accepting whole-valued reals
// such as "1500.0".
func parseInteger(text string) (int64, bool) {
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		if v < 0 {
			return 0, false
		}
		return v, true
	}
	f, ok := parseReal(text)
	if !ok || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
