package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 결제 오케스트레이션 결과 (operation: ready, approve, cancel / result: ok 또는 에러 코드)
	paymentOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_operations_total",
		Help: "Total number of payment orchestration operations by result",
	}, []string{"operation", "result"})

	paymentOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_operation_duration_seconds",
		Help:    "End-to-end duration of payment orchestration operations",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_requests_total",
		Help: "Total number of outbound payment gateway requests",
	}, []string{"operation", "status"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Duration of outbound payment gateway requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})

	sessionCleanupFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_session_cleanup_failures_total",
		Help: "Best-effort payment session writes/deletes that failed after a gateway success",
	}, []string{"operation"})
)

// ObserveOperation 오케스트레이션 결과 기록
func ObserveOperation(operation, result string, elapsed time.Duration) {
	paymentOperationsTotal.WithLabelValues(operation, result).Inc()
	paymentOperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveGatewayRequest 게이트웨이 호출 결과 기록 (status: HTTP 상태 코드 또는 "error")
func ObserveGatewayRequest(operation, status string, elapsed time.Duration) {
	gatewayRequestsTotal.WithLabelValues(operation, status).Inc()
	gatewayRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncSessionCleanupFailure 세션 정리 실패 기록
func IncSessionCleanupFailure(operation string) {
	sessionCleanupFailuresTotal.WithLabelValues(operation).Inc()
}
