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
	"sync"

	"job-platform/internal/job"
	"job-platform/pkg/log"
)

// StatusEvent 执行子系统发布的任务状态变更事件
type StatusEvent struct {
	JobID  string
	Status job.Status
}

// StatusUpdater 消费 StatusEvent 并回写 RecordStore。
// 实现 client.StatusNotifier：执行子系统只发布事件，不直接持有存储
type StatusUpdater struct {
	records job.RecordStore
	ch      chan StatusEvent
	logger  *log.Logger
	stopCh  chan struct{}
	stopOne sync.Once
	wg      sync.WaitGroup
}

const defaultEventBuffer = 256

// NewStatusUpdater 创建状态回写器；buffer <=0 使用默认 256
func NewStatusUpdater(records job.RecordStore, buffer int, logger *log.Logger) *StatusUpdater {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &StatusUpdater{
		records: records,
		ch:      make(chan StatusEvent, buffer),
		logger:  logger.Named("restart.status_updater"),
		stopCh:  make(chan struct{}),
	}
}

// Start 启动消费循环
func (u *StatusUpdater) Start() {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		for {
			select {
			case ev := <-u.ch:
				u.apply(ev)
			case <-u.stopCh:
				// 停止前清空积压
				for {
					select {
					case ev := <-u.ch:
						u.apply(ev)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop 停止消费循环，处理完积压事件后返回
func (u *StatusUpdater) Stop() {
	u.stopOne.Do(func() { close(u.stopCh) })
	u.wg.Wait()
}

func (u *StatusUpdater) apply(ev StatusEvent) {
	if err := u.records.UpdateStatus(context.Background(), ev.JobID, ev.Status); err != nil {
		u.logger.Error("回写任务状态失败", "jobId", ev.JobID, "status", ev.Status.String(), "err", err)
		return
	}
	u.logger.Info("回写任务状态", "jobId", ev.JobID, "status", ev.Status.String())
}

// NotifyJobStatus 实现 client.StatusNotifier；Stop 之后的事件被丢弃并记日志
func (u *StatusUpdater) NotifyJobStatus(jobID string, status job.Status) {
	select {
	case <-u.stopCh:
		u.logger.Warn("状态回写器已停止，事件被丢弃", "jobId", jobID, "status", status.String())
	case u.ch <- StatusEvent{JobID: jobID, Status: status}:
	}
}
