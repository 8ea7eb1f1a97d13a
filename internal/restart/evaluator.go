// Copyright 2026 the job-platform authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package restart

import (
	"context"

	"job-platform/internal/client"
	"job-platform/internal/job"
	"job-platform/pkg/log"
	"job-platform/pkg/metrics"
)

// 否定判定原因，用于日志与指标
const (
	reasonCheckRetryFalse = "check_retry_false"
	reasonFailRetryFalse  = "fail_retry_false"
	reasonMaxRetry        = "max_retry"
	reasonStatus          = "status"
	reasonSnapshot        = "snapshot"
	reasonQueueReject     = "queue_reject"
)

// Evaluator 重试资格判定：从提交结果或终态两条入口喂同一套策略
type Evaluator struct {
	records job.RecordStore
	logger  *log.Logger
}

// NewEvaluator 创建重试资格判定器
func NewEvaluator(records job.RecordStore, logger *log.Logger) *Evaluator {
	return &Evaluator{records: records, logger: logger.Named("restart.evaluator")}
}

// CheckSubmitResult 按提交结果判定。
// 从未提交过（Result 为 nil）的任务始终是重试候选
func (e *Evaluator) CheckSubmitResult(c *client.JobClient) bool {
	if c.Result == nil {
		return true
	}
	if !c.Result.CheckRetry {
		e.logger.Info("[retry=false] 提交结果被归类为不可重试",
			"jobId", c.JobID, "checkRetry", c.Result.CheckRetry, "msgInfo", c.Result.MsgInfo)
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonCheckRetryFalse).Inc()
		return false
	}
	if !c.IsFailRetry {
		e.logger.Info("[retry=false] 任务级重试开关关闭", "jobId", c.JobID, "isFailRetry", c.IsFailRetry)
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonFailRetryFalse).Inc()
		return false
	}
	return true
}

// CheckStatus 按终态判定，并从提交快照重建任务句柄。
// 仅 Failed / SubmitFailed 是候选状态；非候选状态不触碰快照。
// 快照反序列化失败的任务不允许自动重试（错误记日志后吞掉）
func (e *Evaluator) CheckStatus(status job.Status, jobID string, snap *job.Snapshot) (*client.JobClient, bool) {
	if !status.IsRestartCandidate() {
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonStatus).Inc()
		return nil, false
	}

	if snap == nil {
		e.logger.Error("[retry=false] 提交快照缺失，默认不重试", "jobId", jobID)
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonSnapshot).Inc()
		return nil, false
	}
	pa, err := client.ParseParamAction(snap.JobInfo)
	if err != nil {
		// 最近一次提交参数无法重建的任务绝不自动重试
		e.logger.Error("[retry=false] 提交快照反序列化失败，默认不重试", "jobId", jobID, "err", err)
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonSnapshot).Inc()
		return nil, false
	}
	c := client.NewJobClient(pa)

	if !c.IsFailRetry {
		e.logger.Info("[retry=false] 任务级重试开关关闭", "jobId", c.JobID, "isFailRetry", c.IsFailRetry)
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonFailRetryFalse).Inc()
		return nil, false
	}
	return c, true
}

// AlreadyRetryNum 读取任务已重试次数；记录缺失视为 0
func (e *Evaluator) AlreadyRetryNum(ctx context.Context, jobID string) int {
	r, err := e.records.GetByJobID(ctx, jobID)
	if err != nil {
		e.logger.Error("读取任务记录失败，已重试次数按 0 处理", "jobId", jobID, "err", err)
		return 0
	}
	if r == nil {
		return 0
	}
	return r.RetryNum
}

// ReachedCeiling 重试上限检查；返回当前已重试次数与是否达到上限
func (e *Evaluator) ReachedCeiling(ctx context.Context, jobID string, maxRetryNum int) (int, bool) {
	alreadyRetryNum := e.AlreadyRetryNum(ctx, jobID)
	if alreadyRetryNum >= maxRetryNum {
		e.logger.Info("[retry=false] 已达重试上限",
			"jobId", jobID, "alreadyRetryNum", alreadyRetryNum, "maxRetryNum", maxRetryNum)
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonMaxRetry).Inc()
		return alreadyRetryNum, true
	}
	return alreadyRetryNum, false
}
