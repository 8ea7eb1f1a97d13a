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
	"job-platform/internal/mirror"
	"job-platform/internal/queue"
	"job-platform/pkg/log"
	"job-platform/pkg/metrics"
)

// Dealer 重启协调器：资格判定 → 句柄重建 → 入队 → 状态扇出。
// 两个公开入口只返回布尔结论，错误一律在内部记日志后吞掉。
//
// 资源不足导致的失败理应减慢重新入队速度，目前没有任何熔断（已知缺口）
type Dealer struct {
	snapshots  job.SnapshotStore
	records    job.RecordStore
	history    job.HistoryLog
	mirror     mirror.Mirror
	queue      queue.ExecutionQueue
	evaluator  *Evaluator
	rehydrator *Rehydrator
	notifier   client.StatusNotifier
	locks      *keyLock
	logger     *log.Logger
}

// NewDealer 创建重启协调器；notifier 可为 nil（终态不回写）
func NewDealer(
	snapshots job.SnapshotStore,
	records job.RecordStore,
	history job.HistoryLog,
	m mirror.Mirror,
	q queue.ExecutionQueue,
	rehydrator *Rehydrator,
	notifier client.StatusNotifier,
	logger *log.Logger,
) *Dealer {
	return &Dealer{
		snapshots:  snapshots,
		records:    records,
		history:    history,
		mirror:     m,
		queue:      q,
		evaluator:  NewEvaluator(records, logger),
		rehydrator: rehydrator,
		notifier:   notifier,
		locks:      newKeyLock(),
		logger:     logger.Named("restart.dealer"),
	}
}

// RestartForSubmitResult 对提交结果判定是否重试并重新入队。
// 句柄里已带全部提交参数，不经过 Rehydrate
func (d *Dealer) RestartForSubmitResult(ctx context.Context, c *client.JobClient) bool {
	if c == nil || c.JobID == "" {
		return false
	}

	// 上限检查到重试次数递增之间持有任务级锁，防止并发失败检测双重入队
	d.locks.Lock(c.JobID)
	defer d.locks.Unlock(c.JobID)

	if !d.evaluator.CheckSubmitResult(c) {
		return false
	}
	alreadyRetryNum, reached := d.evaluator.ReachedCeiling(ctx, c.JobID, c.MaxRetryNum)
	if reached {
		return false
	}

	retry := d.restartJob(ctx, c)
	d.logger.Info("重试判定完成，任务将重新入队",
		"retry", retry, "jobId", c.JobID, "alreadyRetryNum", alreadyRetryNum, "maxRetryNum", c.MaxRetryNum)
	return retry
}

// RestartForStatus 对任务终态判定是否重试并重新入队。
// snap 为失败检测时拿到的快照句柄；重新入队前会再读一次权威快照
func (d *Dealer) RestartForStatus(ctx context.Context, status job.Status, record *job.Record, snap *job.Snapshot) bool {
	if record == nil || record.JobID == "" {
		return false
	}

	d.locks.Lock(record.JobID)
	defer d.locks.Unlock(record.JobID)

	c, ok := d.evaluator.CheckStatus(status, record.JobID, snap)
	if !ok {
		return false
	}
	alreadyRetryNum, reached := d.evaluator.ReachedCeiling(ctx, record.JobID, c.MaxRetryNum)
	if reached {
		return false
	}

	if err := d.rehydrator.Rehydrate(ctx, c, record, d.notifier); err != nil {
		d.logger.Error("[retry=false] 任务句柄重建失败", "jobId", c.JobID, "err", err)
		return false
	}

	retry := d.restartJob(ctx, c)
	d.logger.Info("重试判定完成，任务将重新入队",
		"retry", retry, "jobId", c.JobID, "alreadyRetryNum", alreadyRetryNum, "maxRetryNum", c.MaxRetryNum)
	return retry
}

// restartJob 用权威快照刷新提交参数后入队。入队被接受是唯一提交点：
// 之后的镜像、流水、记录回写均为尽力而为，失败不撤销入队；
// 入队失败则不产生任何状态写入
func (d *Dealer) restartJob(ctx context.Context, c *client.JobClient) bool {
	snap, err := d.snapshots.GetByJobID(ctx, c.JobID)
	if err != nil {
		d.logger.Error("读取提交快照失败，任务不重启", "jobId", c.JobID, "err", err)
		return false
	}
	if snap == nil {
		// 任务记录可能已被删除或终态归档
		d.logger.Info("提交快照缺失，任务不重启", "jobId", c.JobID)
		return false
	}
	pa, err := client.ParseParamAction(snap.JobInfo)
	if err != nil {
		d.logger.Error("提交快照反序列化失败，任务不重启", "jobId", c.JobID, "err", err)
		return false
	}
	// 重启必须使用最新持久化的提交参数，失败检测到重启执行之间可能已被修改
	c.SQLText = pa.SQLText

	if !d.queue.Submit(ctx, c) {
		metrics.RestartDecisionTotal.WithLabelValues("false", reasonQueueReject).Inc()
		return false
	}

	jobID := c.JobID
	if err := d.mirror.SetStatus(ctx, jobID, job.StatusRestarting); err != nil {
		d.logger.Error("状态镜像写入失败", "jobId", jobID, "err", err)
		metrics.RestartSideEffectFailTotal.WithLabelValues("mirror").Inc()
	}

	// 重试中的任务不置为失败，等待执行器接管
	d.jobRetryRecord(ctx, c)

	if err := d.records.UpdateStatus(ctx, jobID, job.StatusRestarting); err != nil {
		d.logger.Error("任务状态回写失败", "jobId", jobID, "err", err)
		metrics.RestartSideEffectFailTotal.WithLabelValues("record").Inc()
	} else {
		d.logger.Info("更新任务状态", "jobId", jobID, "status", job.StatusRestarting.String())
	}

	d.increaseJobRetryNum(ctx, jobID)

	metrics.RestartTotal.Inc()
	metrics.RestartDecisionTotal.WithLabelValues("true", "ok").Inc()
	return true
}

// jobRetryRecord 追加重试流水；失败仅记日志
func (d *Dealer) jobRetryRecord(ctx context.Context, c *client.JobClient) {
	params, err := c.ParamAction().Encode()
	if err != nil {
		d.logger.Error("重试流水序列化失败", "jobId", c.JobID, "err", err)
		metrics.RestartSideEffectFailTotal.WithLabelValues("history").Inc()
		return
	}
	entry := &job.RetryHistoryEntry{
		JobID:         c.JobID,
		EngineJobID:   c.EngineTaskID,
		ApplicationID: c.ApplicationID,
		Status:        job.StatusRestarting,
		RetryParams:   params,
	}
	if r, err := d.records.GetByJobID(ctx, c.JobID); err == nil && r != nil {
		entry.RetryNum = r.RetryNum
	}
	if err := d.history.Append(ctx, entry); err != nil {
		d.logger.Error("重试流水写入失败", "jobId", c.JobID, "err", err)
		metrics.RestartSideEffectFailTotal.WithLabelValues("history").Inc()
	}
}

// increaseJobRetryNum 读取当前重试次数并加一回写（绝对值覆盖）。
// 与上限检查同处一把任务级锁内，保证每次接受的重启恰好递增一次
func (d *Dealer) increaseJobRetryNum(ctx context.Context, jobID string) {
	r, err := d.records.GetByJobID(ctx, jobID)
	if err != nil || r == nil {
		if err != nil {
			d.logger.Error("读取任务记录失败，重试次数未递增", "jobId", jobID, "err", err)
		}
		metrics.RestartSideEffectFailTotal.WithLabelValues("retry_num").Inc()
		return
	}
	if err := d.records.UpdateRetryNum(ctx, jobID, r.RetryNum+1); err != nil {
		d.logger.Error("重试次数回写失败", "jobId", jobID, "err", err)
		metrics.RestartSideEffectFailTotal.WithLabelValues("retry_num").Inc()
		return
	}
	metrics.RetryNumOnRestart.Observe(float64(r.RetryNum))
}
