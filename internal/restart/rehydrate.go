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
	"fmt"
	"strings"

	"job-platform/internal/checkpoint"
	"job-platform/internal/client"
	"job-platform/internal/job"
	"job-platform/pkg/log"
)

// adjuster 引擎 / 任务类型专属的句柄调整策略。
// 返回 error 表示重启必须中止；可容忍的失败在策略内记日志后返回 nil
type adjuster func(ctx context.Context, r *Rehydrator, c *client.JobClient) error

// 引擎类型策略表（键为小写引擎名）；新增引擎只需注册，不改协调器
var engineAdjusters = map[string]adjuster{
	client.EngineKylin: setRetryTag,
}

// 任务类型策略表
var jobTypeAdjusters = map[client.JobType]adjuster{
	client.JobTypeSync: setCheckpointPath,
}

// Rehydrator 从提交快照重建的任务句柄上补齐重启所需的运行期信息
type Rehydrator struct {
	checkpoints checkpoint.Resolver
	// requireCheckpoint 为 true 时，开启 openCheckpoint 但解析不到
	// 上次 checkpoint 的 SYNC 任务中止重启而不是无续跑点提交
	requireCheckpoint bool
	logger            *log.Logger
}

// NewRehydrator 创建任务句柄重建器
func NewRehydrator(checkpoints checkpoint.Resolver, requireCheckpoint bool, logger *log.Logger) *Rehydrator {
	return &Rehydrator{
		checkpoints:       checkpoints,
		requireCheckpoint: requireCheckpoint,
		logger:            logger.Named("restart.rehydrator"),
	}
}

// Rehydrate 附加引擎侧 id 与终态回写通知，并按引擎 / 任务类型应用调整策略。
// 返回 error 时重启中止（当前仅 requireCheckpoint 场景会触发）
func (r *Rehydrator) Rehydrate(ctx context.Context, c *client.JobClient, record *job.Record, notifier client.StatusNotifier) error {
	if record != nil {
		// 通过引擎任务 id / 应用 id 拉取日志与诊断
		c.EngineTaskID = record.EngineJobID
		c.ApplicationID = record.ApplicationID
	}
	c.Notifier = notifier

	if adjust, ok := engineAdjusters[strings.ToLower(c.EngineType)]; ok {
		if err := adjust(ctx, r, c); err != nil {
			return err
		}
	}
	if adjust, ok := jobTypeAdjusters[c.JobType]; ok {
		if err := adjust(ctx, r, c); err != nil {
			return err
		}
	}
	return nil
}

// setRetryTag Kylin 类批量分析引擎要求插件配置里带 retry 标记。
// 重新序列化失败记日志后继续，任务不带标记提交而不是中止重启
func setRetryTag(ctx context.Context, r *Rehydrator, c *client.JobClient) error {
	if err := c.SetPluginTag("retry", true); err != nil {
		r.logger.Error("写入 retry 标记失败", "jobId", c.JobID, "err", err)
	}
	return nil
}

// setCheckpointPath 将本次重启的续跑点设为上次运行产生的最后一个 checkpoint
func setCheckpointPath(ctx context.Context, r *Rehydrator, c *client.JobClient) error {
	if !c.OpenCheckpoint() {
		return nil
	}
	if c.JobID == "" {
		return nil
	}

	path, ok, err := r.checkpoints.LastCheckpointPath(ctx, c.JobID)
	if err != nil {
		r.logger.Error("解析 checkpoint 路径失败", "jobId", c.JobID, "err", err)
		ok = false
	}
	if ok {
		c.ExternalPath = path
	} else if r.requireCheckpoint {
		return fmt.Errorf("job %s requires a resumable checkpoint but none was found", c.JobID)
	}
	// 解析不到续跑点不是错误，按无续跑点提交
	r.logger.Info("设置 checkpoint 续跑路径", "jobId", c.JobID, "externalPath", c.ExternalPath)
	return nil
}
