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

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-platform/pkg/config"
)

// Resolver 解析任务上次运行产生的最后一个 checkpoint 路径。
// 无可解析的 checkpoint 不是错误，ok=false
type Resolver interface {
	LastCheckpointPath(ctx context.Context, jobID string) (path string, ok bool, err error)
}

// NewResolver 根据配置创建 checkpoint 解析器
func NewResolver(ctx context.Context, cfg config.CheckpointConfig) (Resolver, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryResolver(), nil
	case "postgres":
		return NewPgResolver(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported checkpoint resolver type: %s", cfg.Type)
	}
}

// MemoryResolver 内存实现；提交链路通过 Put 记录 checkpoint
type MemoryResolver struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewMemoryResolver 创建内存 checkpoint 解析器
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{paths: make(map[string]string)}
}

// Put 记录任务最新的 checkpoint 路径
func (r *MemoryResolver) Put(jobID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[jobID] = path
}

func (r *MemoryResolver) LastCheckpointPath(ctx context.Context, jobID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.paths[jobID]
	return p, ok, nil
}

// PgResolver Postgres 实现：engine_job_checkpoints 表按时间取最新一条
type PgResolver struct {
	pool *pgxpool.Pool
}

// NewPgResolver 创建基于 PostgreSQL 的 checkpoint 解析器
func NewPgResolver(ctx context.Context, dsn string) (*PgResolver, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PgResolver{pool: pool}, nil
}

// Close 关闭连接池
func (r *PgResolver) Close() {
	r.pool.Close()
}

func (r *PgResolver) LastCheckpointPath(ctx context.Context, jobID string) (string, bool, error) {
	var path string
	err := r.pool.QueryRow(ctx,
		`SELECT checkpoint_save_path FROM engine_job_checkpoints WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1`,
		jobID).Scan(&path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return path, path != "", nil
}
