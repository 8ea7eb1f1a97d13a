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
	"fmt"

	"job-platform/internal/job"
	"job-platform/pkg/config"
)

// Mirror 任务状态镜像：其他调度节点与 UI 读取的快路径。
// 写入为绝对值覆盖，允许 last-writer-wins
type Mirror interface {
	SetStatus(ctx context.Context, jobID string, status job.Status) error
	// GetStatus 读取镜像状态，无则返回 ok=false
	GetStatus(ctx context.Context, jobID string) (status job.Status, ok bool, err error)
	Close() error
}

// NewMirror 根据配置创建状态镜像
func NewMirror(ctx context.Context, cfg config.MirrorConfig) (Mirror, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryMirror(), nil
	case "redis":
		return NewRedisMirror(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported status mirror type: %s", cfg.Type)
	}
}
