package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"reflect"
	"time"
)

// MaxShadowStateSize is the largest state document a shadow accepts
const MaxShadowStateSize = 8 * 1024

// ShadowState holds the desired and reported sections of a shadow
type ShadowState struct {
	Desired  map[string]interface{} `json:"desired,omitempty"`
	Reported map[string]interface{} `json:"reported,omitempty"`
	Delta    map[string]interface{} `json:"delta,omitempty"`
}

// ShadowDocument is a thing shadow as stored and returned by a get
type ShadowDocument struct {
	State     ShadowState `json:"state"`
	Version   int64       `json:"version"`
	Timestamp int64       `json:"timestamp"`
}

// ShadowUpdate is a parsed update request.
// A section set to null in the request is reported through the Clear flags.
type ShadowUpdate struct {
	Desired       map[string]interface{}
	Reported      map[string]interface{}
	ClearDesired  bool
	ClearReported bool
	Version       *int64
	ClientToken   string

	state json.RawMessage
}

// ShadowError is the error document returned by shadow operations
type ShadowError struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	ClientToken string `json:"clientToken,omitempty"`
}

func (e *ShadowError) Error() string {
	return fmt.Sprintf("shadow error %d: %s", e.Code, e.Message)
}

// JSON returns the error document
func (e *ShadowError) JSON() []byte {
	data, _ := json.Marshal(e)
	return data
}

// NewShadowError creates an error document stamped with now
func NewShadowError(code int, message string, now time.Time) *ShadowError {
	return &ShadowError{Code: code, Message: message, Timestamp: now.Unix()}
}

// ShadowNotFound is returned for a thing without a shadow
func ShadowNotFound(thingName string, now time.Time) *ShadowError {
	return NewShadowError(http.StatusNotFound, fmt.Sprintf("No shadow exists with name: '%s'", thingName), now)
}

// ShadowVersionConflict is returned when an update names a stale version
func ShadowVersionConflict(now time.Time) *ShadowError {
	return NewShadowError(http.StatusConflict, "Version conflict", now)
}

func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// ParseShadowUpdate parses and checks an update request document
func ParseShadowUpdate(body []byte, now time.Time) (*ShadowUpdate, *ShadowError) {
	if len(body) > MaxShadowStateSize {
		return nil, NewShadowError(http.StatusRequestEntityTooLarge, "The payload exceeds the maximum size allowed", now)
	}

	var raw struct {
		State       json.RawMessage `json:"state"`
		Version     *int64          `json:"version"`
		ClientToken string          `json:"clientToken"`
	}
	if err := decodeJSON(body, &raw); err != nil {
		return nil, NewShadowError(http.StatusBadRequest, "Invalid JSON", now)
	}
	if len(raw.State) == 0 || string(raw.State) == "null" {
		return nil, NewShadowError(http.StatusBadRequest, "Missing required node: state", now)
	}

	var sections map[string]json.RawMessage
	if err := decodeJSON(raw.State, &sections); err != nil {
		return nil, NewShadowError(http.StatusBadRequest, "State node must be an object", now)
	}

	update := &ShadowUpdate{Version: raw.Version, ClientToken: raw.ClientToken, state: raw.State}
	for name, section := range sections {
		var target *map[string]interface{}
		var clear *bool
		switch name {
		case "desired":
			target, clear = &update.Desired, &update.ClearDesired
		case "reported":
			target, clear = &update.Reported, &update.ClearReported
		default:
			return nil, NewShadowError(http.StatusBadRequest, fmt.Sprintf("Unexpected node: %s", name), now)
		}

		if string(section) == "null" {
			*clear = true
			continue
		}
		if err := decodeJSON(section, target); err != nil {
			return nil, NewShadowError(http.StatusBadRequest, fmt.Sprintf("%s node must be an object", name), now)
		}
	}

	return update, nil
}

// ParseShadowDocument decodes a stored shadow document
func ParseShadowDocument(body []byte) (*ShadowDocument, error) {
	doc := &ShadowDocument{}
	if err := decodeJSON(body, doc); err != nil {
		return nil, fmt.Errorf("failed to decode shadow document: %w", err)
	}
	return doc, nil
}

// Apply merges update into the document and stamps it with now
func (d *ShadowDocument) Apply(update *ShadowUpdate, now time.Time) {
	if update.ClearDesired {
		d.State.Desired = nil
	} else if update.Desired != nil {
		d.State.Desired = mergeObject(d.State.Desired, update.Desired)
	}

	if update.ClearReported {
		d.State.Reported = nil
	} else if update.Reported != nil {
		d.State.Reported = mergeObject(d.State.Reported, update.Reported)
	}

	d.State.Delta = nil
	d.Timestamp = now.Unix()
}

// Marshal encodes the document for storage, without a delta
func (d *ShadowDocument) Marshal() ([]byte, error) {
	stored := *d
	stored.State.Delta = nil
	return json.Marshal(&stored)
}

// GetResponse encodes the document as returned by a get, including the delta
func (d *ShadowDocument) GetResponse() ([]byte, error) {
	resp := *d
	resp.State.Delta = Delta(d.State.Desired, d.State.Reported)
	return json.Marshal(&resp)
}

// UpdateAccepted encodes the response to an accepted update
func (u *ShadowUpdate) UpdateAccepted(version int64, now time.Time) ([]byte, error) {
	return json.Marshal(struct {
		State       json.RawMessage `json:"state"`
		Version     int64           `json:"version"`
		Timestamp   int64           `json:"timestamp"`
		ClientToken string          `json:"clientToken,omitempty"`
	}{u.state, version, now.Unix(), u.ClientToken})
}

// DeleteAccepted encodes the response to an accepted delete
func DeleteAccepted(version int64, now time.Time) ([]byte, error) {
	return json.Marshal(struct {
		Version   int64 `json:"version"`
		Timestamp int64 `json:"timestamp"`
	}{version, now.Unix()})
}

// mergeObject merges patch into dst. Null values delete keys and nested
// objects merge recursively. An empty result is returned as nil.
func mergeObject(dst, patch map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{})
	}

	for key, value := range patch {
		if value == nil {
			delete(dst, key)
			continue
		}

		if patchObj, ok := value.(map[string]interface{}); ok {
			existing, _ := dst[key].(map[string]interface{})
			merged := mergeObject(existing, patchObj)
			if merged == nil {
				delete(dst, key)
			} else {
				dst[key] = merged
			}
			continue
		}

		dst[key] = value
	}

	if len(dst) == 0 {
		return nil
	}
	return dst
}

// Delta returns the desired values that differ from the reported ones
func Delta(desired, reported map[string]interface{}) map[string]interface{} {
	delta := make(map[string]interface{})

	for key, want := range desired {
		have, ok := reported[key]

		wantObj, wantIsObj := want.(map[string]interface{})
		haveObj, haveIsObj := have.(map[string]interface{})
		if wantIsObj && haveIsObj {
			if sub := Delta(wantObj, haveObj); sub != nil {
				delta[key] = sub
			}
			continue
		}

		if !ok || !valuesEqual(want, have) {
			delta[key] = want
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// valuesEqual compares decoded state values, numbers by value so that 1 and
// 1.0 match
func valuesEqual(a, b interface{}) bool {
	if x, ok := numberValue(a); ok {
		y, ok := numberValue(b)
		return ok && x.Cmp(y) == 0
	}

	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !valuesEqual(v, w) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func numberValue(v interface{}) (*big.Float, bool) {
	switch n := v.(type) {
	case json.Number:
		f, _, err := big.ParseFloat(string(n), 10, 256, big.ToNearestEven)
		return f, err == nil
	case float64:
		return new(big.Float).SetFloat64(n), true
	case int64:
		return new(big.Float).SetInt64(n), true
	case int:
		return new(big.Float).SetInt64(int64(n)), true
	}
	return nil, false
}
