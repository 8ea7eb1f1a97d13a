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

package mirror

import (
	"context"
	"sync"

	"job-platform/internal/job"
)

// MemoryMirror 内存实现：单机部署与测试使用
type MemoryMirror struct {
	mu     sync.RWMutex
	status map[string]job.Status
}

// NewMemoryMirror 创建内存状态镜像
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{status: make(map[string]job.Status)}
}

func (m *MemoryMirror) SetStatus(ctx context.Context, jobID string, status job.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[jobID] = status
	return nil
}

func (m *MemoryMirror) GetStatus(ctx context.Context, jobID string) (job.Status, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.status[jobID]
	return s, ok, nil
}

func (m *MemoryMirror) Close() error {
	return nil
}
