package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for commands received, shift transitions,
// reminder activity, and a histogram for report generation.
type Metrics struct {
	CommandReceived    *prometheus.CounterVec   // Counter for received commands and menu buttons
	ShiftTransitions   *prometheus.CounterVec   // Counter for shift state machine transitions by outcome
	NewUsers           prometheus.Counter       // Counter for completed registrations
	RemindersScheduled prometheus.Counter       // Counter for reminders scheduled
	RemindersFired     prometheus.Counter       // Counter for reminders delivered
	ReportGeneration   *prometheus.HistogramVec // Histogram for attendance report generation durations
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
// It initializes counters and histograms for tracking bot commands, shift
// transitions, reminder scheduling and report generation.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: /start, start_shift, colleagues, reminders
		ShiftTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_shift_transitions_total",
			Help: "Shift state machine transitions",
		}, []string{"action", "outcome"}), // action: start_shift..end_break; outcome: ok, rejected, error
		NewUsers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "telegram_new_users_total",
			Help: "Total number of completed registrations",
		}),
		RemindersScheduled: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "telegram_reminders_scheduled_total",
			Help: "Total number of reminders scheduled",
		}),
		RemindersFired: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "telegram_reminders_fired_total",
			Help: "Total number of reminders delivered",
		}),
		ReportGeneration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "telegram_report_generation_duration_seconds",
			Help: "Duration of attendance report generation.",
		}, []string{"format"}), // format: text, excel
	}
}
