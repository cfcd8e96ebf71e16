package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agro"

var (
	// AllocationSyncRows 同步结果按动作累计
	AllocationSyncRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "allocation",
		Name:      "sync_rows_total",
		Help:      "Allocation rows touched by reconciliation, by action.",
	}, []string{"action"})

	// AllocationSyncDuration 同步耗时
	AllocationSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "allocation",
		Name:      "sync_duration_seconds",
		Help:      "Duration of allocation reconciliation passes.",
		Buckets:   prometheus.DefBuckets,
	})

	// PurchaseSubmissions 采购申请提交结果
	PurchaseSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "purchase",
		Name:      "submissions_total",
		Help:      "Purchase order submissions, by result.",
	}, []string{"result"})

	// PurchaseLinesClamped 被截断到剩余量的申请行
	PurchaseLinesClamped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "purchase",
		Name:      "lines_clamped_total",
		Help:      "Submitted lines reduced to the remaining allocation.",
	})

	// HTTPRequests 接口请求数
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by method, route and business code.",
	}, []string{"method", "route", "code"})

	// StockReceipts 入库结果
	StockReceipts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stock",
		Name:      "receipts_total",
		Help:      "Stock receive calls, by result.",
	}, []string{"result"})
)

// ObserveSync 记录一次同步结果
func ObserveSync(added, updated, staled int64, seconds float64) {
	AllocationSyncRows.WithLabelValues("added").Add(float64(added))
	AllocationSyncRows.WithLabelValues("updated").Add(float64(updated))
	AllocationSyncRows.WithLabelValues("marked_stale").Add(float64(staled))
	AllocationSyncDuration.Observe(seconds)
}

// Handler 返回 prometheus 抓取端点
func Handler() http.Handler {
	return promhttp.Handler()
}
