package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RuleSweeps 规则评估扫描次数, result: success|error
	RuleSweeps *prometheus.CounterVec
	// AlertsCreated 新触发的告警数, 按级别统计
	AlertsCreated *prometheus.CounterVec
	// AlertsSuppressed 被静默期或未关闭告警抑制的触发次数
	AlertsSuppressed prometheus.Counter
	// AlertsRecovered 自动恢复的告警数
	AlertsRecovered prometheus.Counter
	// Notifications 通知发送次数, channel: sms|email|push|wechat, result: success|failed
	Notifications *prometheus.CounterVec
	// EventsDropped 因队列已满被丢弃的告警事件数
	EventsDropped prometheus.Counter

	initOnce sync.Once
)

// Init 注册所有指标，重复调用无副作用
func Init() {
	initOnce.Do(func() {
		RuleSweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquawatch",
			Name:      "rule_sweeps_total",
			Help:      "Total number of alert rule evaluation sweeps.",
		}, []string{"result"})

		AlertsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquawatch",
			Name:      "alerts_created_total",
			Help:      "Total number of alerts created, partitioned by level.",
		}, []string{"level"})

		AlertsSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aquawatch",
			Name:      "alerts_suppressed_total",
			Help:      "Total number of alert triggers suppressed by quiet period or open alerts.",
		})

		AlertsRecovered = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aquawatch",
			Name:      "alerts_recovered_total",
			Help:      "Total number of alerts automatically recovered.",
		})

		Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquawatch",
			Name:      "notifications_total",
			Help:      "Total number of notification attempts, partitioned by channel and result.",
		}, []string{"channel", "result"})

		EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aquawatch",
			Name:      "alert_events_dropped_total",
			Help:      "Total number of alert events dropped because the queue was full.",
		})

		prometheus.MustRegister(
			RuleSweeps,
			AlertsCreated,
			AlertsSuppressed,
			AlertsRecovered,
			Notifications,
			EventsDropped,
		)
	})
}
