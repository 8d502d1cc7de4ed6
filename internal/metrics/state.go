package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"visionix/internal/state"
	"visionix/internal/timecode"
)

// StateCollector exposes the device status fields and OCR timestamp as
// gauges. Values are read from the store at scrape time, so a scrape racing
// a write sees either the pre- or post-write value, never an intermediate.
type StateCollector struct {
	store *state.Store

	cameraDesc  *prometheus.Desc
	hdmiDesc    *prometheus.Desc
	acDesc      *prometheus.Desc
	dcDesc      *prometheus.Desc
	ocrDesc     *prometheus.Desc
	ocrInfoDesc *prometheus.Desc
}

// NewStateCollector builds a collector backed by the given store.
func NewStateCollector(store *state.Store) *StateCollector {
	return &StateCollector{
		store:       store,
		cameraDesc:  prometheus.NewDesc("camera_value", "Camera status value", nil, nil),
		hdmiDesc:    prometheus.NewDesc("hdmi_value", "HDMI status value", nil, nil),
		acDesc:      prometheus.NewDesc("ac_value", "AC power status value", nil, nil),
		dcDesc:      prometheus.NewDesc("dc_value", "DC power status value", nil, nil),
		ocrDesc:     prometheus.NewDesc("ocr_value_seconds", "OCR timestamp converted to seconds", nil, nil),
		ocrInfoDesc: prometheus.NewDesc("ocr_value_info", "OCR timestamp value as HH:MM:SS string", []string{"value"}, nil),
	}
}

func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cameraDesc
	ch <- c.hdmiDesc
	ch <- c.acDesc
	ch <- c.dcDesc
	ch <- c.ocrDesc
	ch <- c.ocrInfoDesc
}

func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.cameraDesc, prometheus.GaugeValue, float64(snap.Camera))
	ch <- prometheus.MustNewConstMetric(c.hdmiDesc, prometheus.GaugeValue, float64(snap.HDMI))
	ch <- prometheus.MustNewConstMetric(c.acDesc, prometheus.GaugeValue, float64(snap.AC))
	ch <- prometheus.MustNewConstMetric(c.dcDesc, prometheus.GaugeValue, float64(snap.DC))
	ch <- prometheus.MustNewConstMetric(c.ocrDesc, prometheus.GaugeValue, float64(snap.OCRSeconds))
	ch <- prometheus.MustNewConstMetric(c.ocrInfoDesc, prometheus.GaugeValue, 1, timecode.Format(snap.OCRSeconds))
}
