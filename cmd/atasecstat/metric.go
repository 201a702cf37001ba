package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type metricCollector struct {
	m []prometheus.Metric
}

func (mc *metricCollector) Collect(c chan<- prometheus.Metric) {
	for _, m := range mc.m {
		c <- m
	}
}

func (mc *metricCollector) Describe(c chan<- *prometheus.Desc) {
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func outputMetrics(w io.Writer, state Devices) error {
	var (
		mDriveInfo = prometheus.NewDesc(
			"ata_security_drive_info",
			"Info metric regarding the detected drives",
			[]string{"device", "model", "serial", "firmware", "protocol"}, nil,
		)
		mSupported = prometheus.NewDesc(
			"ata_security_supported",
			"Boolean describing whether a drive supports the ATA security feature set",
			[]string{"device"}, nil,
		)
		mFlag = prometheus.NewDesc(
			"ata_security_state",
			"Boolean describing a particular ATA security state flag reported by the drive",
			[]string{"device", "flag"}, nil,
		)
		mEraseTime = prometheus.NewDesc(
			"ata_security_erase_time_minutes",
			"Estimated time for SECURITY ERASE UNIT as reported by the drive",
			[]string{"device", "mode"}, nil,
		)
	)
	mc := &metricCollector{}
	for _, s := range state {
		mc.m = append(mc.m,
			prometheus.MustNewConstMetric(mDriveInfo, prometheus.GaugeValue, 1,
				s.Device, s.Identity.Model, s.Identity.SerialNumber, s.Identity.Firmware, s.Identity.Protocol))
		sup := s.Status != nil && s.Status.Flags.Supported()
		mc.m = append(mc.m, prometheus.MustNewConstMetric(mSupported, prometheus.GaugeValue, boolValue(sup), s.Device))

		// Nothing else is known without the status
		if !sup {
			continue
		}

		f := s.Status.Flags
		for _, fl := range []struct {
			name string
			set  bool
		}{
			{"enabled", f.Enabled()},
			{"locked", f.Locked()},
			{"frozen", f.Frozen()},
			{"attempts_exceeded", f.AttemptsExceeded()},
			{"enhanced_erase_supported", f.EnhancedEraseSupported()},
			{"maximum_level", f.MaximumLevel()},
		} {
			mc.m = append(mc.m, prometheus.MustNewConstMetric(mFlag, prometheus.GaugeValue, boolValue(fl.set), s.Device, fl.name))
		}

		// Erase times are only exported when the drive reports one
		if m, ok := s.Status.EraseTime.Minutes(); ok {
			mc.m = append(mc.m, prometheus.MustNewConstMetric(mEraseTime, prometheus.GaugeValue, float64(m), s.Device, "normal"))
		}
		if m, ok := s.Status.EnhancedEraseTime.Minutes(); ok {
			mc.m = append(mc.m, prometheus.MustNewConstMetric(mEraseTime, prometheus.GaugeValue, float64(m), s.Device, "enhanced"))
		}
	}

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(mc); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to serialize metrics: %w", err)
		}
	}
	return nil
}
