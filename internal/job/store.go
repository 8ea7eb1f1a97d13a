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

package job

import (
	"context"
	"fmt"

	"job-platform/pkg/config"
)

// RecordStore 任务元数据存储：查询、状态与重试次数回写。
// 写操作均为绝对值覆盖（last-writer-wins），本核心不做读-改-写
type RecordStore interface {
	Create(ctx context.Context, r *Record) error
	// GetByJobID 按任务 id 查询，无则返回 nil, nil
	GetByJobID(ctx context.Context, jobID string) (*Record, error)
	UpdateStatus(ctx context.Context, jobID string, status Status) error
	UpdateRetryNum(ctx context.Context, jobID string, retryNum int) error
}

// SnapshotStore 提交快照存储；Put 属于提交链路，重启核心只调 GetByJobID
type SnapshotStore interface {
	Put(ctx context.Context, s *Snapshot) error
	// GetByJobID 按任务 id 查询最近一次提交快照，无则返回 nil, nil
	GetByJobID(ctx context.Context, jobID string) (*Snapshot, error)
	Delete(ctx context.Context, jobID string) error
}

// HistoryLog 重试流水：仅追加；Append 失败由调用方记日志吞掉
type HistoryLog interface {
	Append(ctx context.Context, e *RetryHistoryEntry) error
	ListByJobID(ctx context.Context, jobID string) ([]*RetryHistoryEntry, error)
}

// NewRecordStore 根据配置创建任务元数据存储
func NewRecordStore(ctx context.Context, cfg config.StoreConfig) (RecordStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewRecordStoreMem(), nil
	case "postgres":
		return NewRecordStorePg(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported record store type: %s", cfg.Type)
	}
}

// NewSnapshotStore 根据配置创建提交快照存储
func NewSnapshotStore(ctx context.Context, cfg config.StoreConfig) (SnapshotStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewSnapshotStoreMem(), nil
	case "postgres":
		return NewSnapshotStorePg(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported snapshot store type: %s", cfg.Type)
	}
}

// NewHistoryLog 根据配置创建重试流水存储
func NewHistoryLog(ctx context.Context, cfg config.StoreConfig) (HistoryLog, error) {
	switch cfg.Type {
	case "", "memory":
		return NewHistoryLogMem(), nil
	case "postgres":
		return NewHistoryLogPg(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported history log type: %s", cfg.Type)
	}
}
