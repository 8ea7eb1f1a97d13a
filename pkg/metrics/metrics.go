package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 restartd 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RestartDecisionTotal, RestartTotal, RestartSideEffectFailTotal,
		RestartQueueDepth, RetryNumOnRestart,
	)
}

// RestartDecisionTotal 重试判定总数（按结果与原因）
var RestartDecisionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobengine_restart_decision_total",
		Help: "重试判定总数（按结果与原因）",
	},
	[]string{"retry", "reason"}, // retry: true|false; reason: ok | check_retry_false | fail_retry_false | max_retry | status | snapshot | queue_reject
)

// RestartTotal 成功重新入队的任务总数
var RestartTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "jobengine_restart_total",
		Help: "成功重新入队的任务总数",
	},
)

// RestartSideEffectFailTotal 入队成功后状态扇出失败总数（按目标）
var RestartSideEffectFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobengine_restart_side_effect_fail_total",
		Help: "入队成功后状态扇出失败总数（按目标）",
	},
	[]string{"target"}, // mirror | history | record | retry_num
)

// RestartQueueDepth 执行队列当前积压深度
var RestartQueueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "jobengine_restart_queue_depth",
		Help: "执行队列当前积压深度",
	},
)

// RetryNumOnRestart 重启时的已重试次数分布，用于发现 retry storm
var RetryNumOnRestart = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "jobengine_retry_num_on_restart",
		Help:    "重启时的已重试次数分布",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	},
)

// WritePrometheus 将 Prometheus 文本格式写入 w
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
