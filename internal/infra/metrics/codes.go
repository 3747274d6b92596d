package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	codesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_codes_generated_total",
			Help: "Count of access codes issued.",
		},
	)

	validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_code_validations_total",
			Help: "Count of validation attempts by outcome.",
		},
		[]string{"result"},
	)

	codesRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_codes_revoked_total",
			Help: "Count of codes revoked by an admin.",
		},
	)

	codesSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_codes_swept_total",
			Help: "Count of expired codes deactivated by cleanup sweeps.",
		},
	)

	cleanupSweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_code_cleanup_sweeps_total",
			Help: "Count of cleanup sweeps by trigger.",
		},
		[]string{"trigger"},
	)

	validationsThrottled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_code_validations_throttled_total",
			Help: "Count of validation attempts rejected by the rate limiter.",
		},
	)
)

func init() {
	register(codesGenerated, validations, codesRevoked, codesSwept, cleanupSweeps, validationsThrottled)
}

func IncCodesGenerated() { codesGenerated.Inc() }

// IncValidation records a validation outcome: "valid", "invalid" or "expired".
func IncValidation(result string) { validations.WithLabelValues(result).Inc() }

func IncCodesRevoked() { codesRevoked.Inc() }

func AddCodesSwept(n int) {
	if n > 0 {
		codesSwept.Add(float64(n))
	}
}

// IncCleanupSweep records a completed sweep: trigger is "forced" or "background".
func IncCleanupSweep(trigger string) { cleanupSweeps.WithLabelValues(trigger).Inc() }

func IncValidationThrottled() { validationsThrottled.Inc() }
