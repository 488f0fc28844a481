// metrics: prometheus-метрики auth-сервиса.
//
// Все методы *Metrics безопасны для nil-получателя: сервис можно собрать без метрик.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

// Результаты входа.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginError              = "error"
)

// Metrics: набор коллекторов сервиса.
type Metrics struct {
	logins       *prometheus.CounterVec
	tokensIssued *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	hashDuration *prometheus.HistogramVec
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Issued tokens by type.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_rejected_total",
			Help:      "Rejected bearer tokens by reason.",
		}, []string{"reason"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "password_hash_duration_seconds",
			Help:      "Duration of bcrypt hash and verify calls.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
	}

	reg.MustRegister(m.logins, m.tokensIssued, m.rejected, m.hashDuration)

	return m
}

// LoginAttempt учитывает попытку входа.
func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// TokenIssued учитывает выпущенный токен.
func (m *Metrics) TokenIssued(typ string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(typ).Inc()
}

// TokenRejected учитывает отклонённый токен.
func (m *Metrics) TokenRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// ObserveHash записывает длительность операции хешера, начатой в start.
func (m *Metrics) ObserveHash(op string, start time.Time) {
	if m == nil {
		return
	}
	m.hashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
