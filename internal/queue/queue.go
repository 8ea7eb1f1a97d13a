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

package queue

import (
	"context"

	"job-platform/internal/client"
	"job-platform/pkg/metrics"
)

// ExecutionQueue 待执行任务的入口。Submit 返回入队是否被接受；
// 接受即视为重启已发生，之后不可回滚
type ExecutionQueue interface {
	Submit(ctx context.Context, c *client.JobClient) bool
}

// MemoryQueue 有界内存队列：Submit 非阻塞，队列满则拒绝。
// 消费端（实际拉起任务的执行器）通过 Take 取任务
type MemoryQueue struct {
	ch chan *client.JobClient
}

const defaultCapacity = 512

// NewMemoryQueue 创建有界内存队列；capacity <=0 使用默认 512
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryQueue{ch: make(chan *client.JobClient, capacity)}
}

func (q *MemoryQueue) Submit(ctx context.Context, c *client.JobClient) bool {
	select {
	case q.ch <- c:
		metrics.RestartQueueDepth.Set(float64(len(q.ch)))
		return true
	default:
		return false
	}
}

// Take 阻塞取出下一个任务；ctx 取消时返回 nil, false
func (q *MemoryQueue) Take(ctx context.Context) (*client.JobClient, bool) {
	select {
	case c := <-q.ch:
		metrics.RestartQueueDepth.Set(float64(len(q.ch)))
		return c, true
	case <-ctx.Done():
		return nil, false
	}
}

// Len 当前积压数量
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
