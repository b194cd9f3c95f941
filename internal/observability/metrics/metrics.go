package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking flows.
type BookingMetrics struct {
	bookedTotal         *prometheus.CounterVec
	cancelledTotal      prometheus.Counter
	rescheduledTotal    prometheus.Counter
	availabilityTotal   *prometheus.CounterVec
	availabilityLatency prometheus.Histogram
	otpIssuedTotal      prometheus.Counter
	otpVerifiedTotal    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "booked_total",
			Help:      "Appointment booking attempts by outcome",
		}, []string{"status"}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "cancelled_total",
			Help:      "Appointments cancelled by patients or staff",
		}),
		rescheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "rescheduled_total",
			Help:      "Appointments moved to a new slot",
		}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "computed_total",
			Help:      "Availability computations by result",
		}, []string{"result"}),
		availabilityLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "latency_seconds",
			Help:      "Latency of loading and computing doctor availability",
			Buckets:   prometheus.DefBuckets,
		}),
		otpIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "auth",
			Name:      "otp_issued_total",
			Help:      "One-time codes issued",
		}),
		otpVerifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "auth",
			Name:      "otp_verified_total",
			Help:      "One-time code verifications by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.bookedTotal,
		m.cancelledTotal,
		m.rescheduledTotal,
		m.availabilityTotal,
		m.availabilityLatency,
		m.otpIssuedTotal,
		m.otpVerifiedTotal,
	)
	return m
}

// ObserveBooking records a booking attempt; status is "booked" or an error class.
func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookedTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveCancel() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}

func (m *BookingMetrics) ObserveReschedule() {
	if m == nil {
		return
	}
	m.rescheduledTotal.Inc()
}

// ObserveAvailability records one computation; result is "available", "empty" or "error".
func (m *BookingMetrics) ObserveAvailability(result string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(result).Inc()
	m.availabilityLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveOTPIssued() {
	if m == nil {
		return
	}
	m.otpIssuedTotal.Inc()
}

func (m *BookingMetrics) ObserveOTPVerified(result string) {
	if m == nil {
		return
	}
	m.otpVerifiedTotal.WithLabelValues(result).Inc()
}
