// Package state holds the live status of the inspected device. One Store
// is constructed at startup and shared by the HTTP handlers, the metrics
// collectors and the device poller; it is the only shared mutable resource
// in the process.
package state

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"visionix/internal/timecode"
)

// Wire field names accepted by Apply. "status" is an alias for FieldCamera
// kept for older probe firmware; handlers translate it before calling in.
const (
	FieldCamera = "camera_value"
	FieldOCR    = "ocr_value"
	FieldHDMI   = "hdmi_value"
	FieldAC     = "ac_value"
	FieldDC     = "dc_value"
)

// applyOrder fixes the field iteration order so multi-field updates are
// deterministic.
var applyOrder = []string{FieldCamera, FieldOCR, FieldHDMI, FieldAC, FieldDC}

// Snapshot is a consistent copy of every stored field.
type Snapshot struct {
	Camera     int `json:"camera_value"`
	HDMI       int `json:"hdmi_value"`
	AC         int `json:"ac_value"`
	DC         int `json:"dc_value"`
	OCRSeconds int `json:"ocr_value"`
}

// Store is the synchronized in-memory holder of device status fields and
// the OCR seconds-of-day value. All fields stay within their valid range at
// every observable instant: values are validated before the lock is taken
// and assignments are O(1).
type Store struct {
	mu     sync.RWMutex
	camera int
	hdmi   int
	ac     int
	dc     int
	ocr    int
}

// NewStore returns a store with every status field at 1 (normal) and the
// OCR value at midnight.
func NewStore() *Store {
	return &Store{camera: 1, hdmi: 1, ac: 1, dc: 1}
}

// Status returns the primary device (camera) status.
func (s *Store) Status() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// SetStatus updates the primary device status. Values outside {0,1} are
// rejected and the prior value is kept.
func (s *Store) SetStatus(v int) error {
	if v != 0 && v != 1 {
		return &ValidationError{Kind: KindInvalidStatus, Field: FieldCamera, Value: v, Msg: "status must be 0 or 1"}
	}
	s.mu.Lock()
	s.camera = v
	s.mu.Unlock()
	return nil
}

// OCRSeconds returns the stored OCR timestamp as seconds since midnight.
func (s *Store) OCRSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ocr
}

// SetOCR validates raw through the time codec and atomically replaces the
// stored value, returning the parsed seconds. On failure the prior value is
// untouched.
func (s *Store) SetOCR(raw any) (int, error) {
	v, err := timecode.Parse(raw)
	if err != nil {
		return 0, wrapTimecode(FieldOCR, err)
	}
	s.mu.Lock()
	s.ocr = v
	s.mu.Unlock()
	return v, nil
}

// SetHDMI updates the HDMI link state (0-3, per the capture card).
func (s *Store) SetHDMI(v int) error {
	if v < 0 || v > 3 {
		return &ValidationError{Kind: KindInvalidStatus, Field: FieldHDMI, Value: v, Msg: "hdmi_value must be one of 0, 1, 2, 3"}
	}
	s.mu.Lock()
	s.hdmi = v
	s.mu.Unlock()
	return nil
}

// SetAC updates the AC power check result.
func (s *Store) SetAC(v int) error {
	return s.setBinary(&s.ac, FieldAC, v)
}

// SetDC updates the DC power check result.
func (s *Store) SetDC(v int) error {
	return s.setBinary(&s.dc, FieldDC, v)
}

func (s *Store) setBinary(field *int, name string, v int) error {
	if v != 0 && v != 1 {
		return &ValidationError{Kind: KindInvalidStatus, Field: name, Value: v, Msg: name + " must be either 0 or 1"}
	}
	s.mu.Lock()
	*field = v
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of all fields taken under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Camera: s.camera, HDMI: s.hdmi, AC: s.ac, DC: s.dc, OCRSeconds: s.ocr}
}

// Apply performs a multi-field update. Every provided field is validated
// first; nothing is written unless all of them pass, so a 4xx never leaves
// the store partially updated. Unknown keys are ignored. Returns the
// applied field values.
func (s *Store) Apply(fields map[string]any) (map[string]int, error) {
	staged := make(map[string]int, len(fields))
	for _, name := range applyOrder {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		v, err := s.validate(name, raw)
		if err != nil {
			return nil, err
		}
		staged[name] = v
	}
	if len(staged) == 0 {
		return nil, &ValidationError{Kind: KindInvalidFormat, Field: "", Value: nil, Msg: "no valid fields provided for update"}
	}

	s.mu.Lock()
	for name, v := range staged {
		switch name {
		case FieldCamera:
			s.camera = v
		case FieldOCR:
			s.ocr = v
		case FieldHDMI:
			s.hdmi = v
		case FieldAC:
			s.ac = v
		case FieldDC:
			s.dc = v
		}
	}
	s.mu.Unlock()
	return staged, nil
}

func (s *Store) validate(name string, raw any) (int, error) {
	if name == FieldOCR {
		v, err := timecode.Parse(raw)
		if err != nil {
			return 0, wrapTimecode(name, err)
		}
		return v, nil
	}

	v, ok := toInt(raw)
	if !ok {
		return 0, &ValidationError{Kind: KindInvalidFormat, Field: name, Value: raw, Msg: name + " must be an integer"}
	}
	switch name {
	case FieldCamera:
		if v != 0 && v != 1 {
			return 0, &ValidationError{Kind: KindInvalidStatus, Field: name, Value: raw, Msg: "status must be 0 or 1"}
		}
	case FieldHDMI:
		if v < 0 || v > 3 {
			return 0, &ValidationError{Kind: KindInvalidStatus, Field: name, Value: raw, Msg: "hdmi_value must be one of 0, 1, 2, 3"}
		}
	case FieldAC, FieldDC:
		if v != 0 && v != 1 {
			return 0, &ValidationError{Kind: KindInvalidStatus, Field: name, Value: raw, Msg: name + " must be either 0 or 1"}
		}
	default:
		return 0, &ValidationError{Kind: KindInvalidFormat, Field: name, Value: raw, Msg: fmt.Sprintf("unsupported field: %s", name)}
	}
	return v, nil
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
