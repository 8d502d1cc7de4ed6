// Package handlers adapts wire requests onto the state store and metrics
// layer. Handlers hold no logic beyond parsing and response shaping.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"visionix/internal/state"
	"visionix/internal/timecode"
)

// StatusHandlers serves the status-update API consumed by the probe
// firmware and the EMS.
type StatusHandlers struct {
	store *state.Store
}

func NewStatusHandlers(store *state.Store) *StatusHandlers {
	return &StatusHandlers{store: store}
}

// StatusGET reports the primary device status plus the full field snapshot.
func (h *StatusHandlers) StatusGET(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":       snap.Camera,
		"camera_value": snap.Camera,
		"hdmi_value":   snap.HDMI,
		"ac_value":     snap.AC,
		"dc_value":     snap.DC,
		"ocr_value":    snap.OCRSeconds,
		"timestamp":    time.Now().Unix(),
	})
}

// StatusPOST applies a JSON multi-field update. "status" is accepted as an
// alias for camera_value.
func (h *StatusHandlers) StatusPOST(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid JSON body",
			"kind":  state.KindInvalidFormat,
		})
		return
	}
	h.applyUpdate(c, body)
}

// StatusUpdateGET applies the same multi-field update from query
// parameters, for probes that can only issue GETs.
func (h *StatusHandlers) StatusUpdateGET(c *gin.Context) {
	fields := make(map[string]any)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	h.applyUpdate(c, fields)
}

func (h *StatusHandlers) applyUpdate(c *gin.Context, fields map[string]any) {
	if v, ok := fields["status"]; ok {
		if _, exists := fields[state.FieldCamera]; !exists {
			fields[state.FieldCamera] = v
		}
	}

	updated, err := h.store.Apply(fields)
	if err != nil {
		writeValidationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated_fields": updated,
		"status":         h.store.Status(),
		"timestamp":      time.Now().Unix(),
	})
}

// OCRGET reports the stored OCR timestamp in both representations.
func (h *StatusHandlers) OCRGET(c *gin.Context) {
	seconds := h.store.OCRSeconds()
	c.JSON(http.StatusOK, gin.H{
		"ocr_value": seconds,
		"ocr_time":  timecode.Format(seconds),
	})
}

// OCRPOST replaces the OCR timestamp from a JSON body carrying either
// seconds since midnight or an HH:MM:SS string.
func (h *StatusHandlers) OCRPOST(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid JSON body",
			"kind":  state.KindInvalidFormat,
		})
		return
	}
	raw, ok := body["ocr_value"]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ocr_value is required",
			"kind":  state.KindInvalidFormat,
			"field": state.FieldOCR,
		})
		return
	}
	seconds, err := h.store.SetOCR(raw)
	if err != nil {
		writeValidationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ocr_value": seconds,
		"ocr_time":  timecode.Format(seconds),
	})
}

func writeValidationError(c *gin.Context, err error) {
	var ve *state.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ve.Msg,
			"kind":  ve.Kind,
			"field": ve.Field,
			"value": ve.Value,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
