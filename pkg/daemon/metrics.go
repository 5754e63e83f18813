package daemon

import (
	"strconv"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOutletOn       *prometheus.GaugeVec
	metricsOutletWatts    *prometheus.GaugeVec
	metricsOutletSwitches *prometheus.CounterVec
)

func init() {
	metricsOutletOn = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pductl_outlet_on",
			Help: "Power state of an outlet as last read, 1 for on and 0 for off.",
		},
		[]string{"pdu", "outlet", "label"},
	)

	metricsOutletWatts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pductl_outlet_output_watts",
			Help: "Output power of an outlet as last read, metered PDUs only.",
		},
		[]string{"pdu", "outlet"},
	)

	metricsOutletSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pductl_outlet_switches_total",
			Help: "A count of outlet switch requests.",
		},
		[]string{"pdu", "action", "result"}, // result is success/failure
	)
}

func metricsOutletStatus(c *pdu.Controller, status pdu.OutletStatus) {
	label, _ := c.Directory().Label(status.OutletID)
	on := 0.0
	if status.OutletOn {
		on = 1
	}
	metricsOutletOn.With(prometheus.Labels{
		"pdu":    c.Host(),
		"outlet": status.OutletID,
		"label":  label,
	}).Set(on)

	if status.OutputWatts == "" {
		return
	}
	if watts, err := strconv.ParseFloat(status.OutputWatts, 64); err == nil {
		metricsOutletWatts.WithLabelValues(c.Host(), status.OutletID).Set(watts)
	}
}

func metricsOutletSwitch(host, action string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metricsOutletSwitches.WithLabelValues(host, action, result).Inc()
}
