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
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"job-platform/internal/job"
	"job-platform/pkg/config"
)

const defaultKeyPrefix = "jobengine:status:"

// RedisMirror Redis 实现：多调度节点共享的分布式状态镜像
type RedisMirror struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisMirror 创建 Redis 状态镜像并校验连通性
func NewRedisMirror(ctx context.Context, cfg config.MirrorConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisMirror{client: client, keyPrefix: prefix, ttl: cfg.MirrorTTL()}, nil
}

func (m *RedisMirror) key(jobID string) string {
	return m.keyPrefix + jobID
}

func (m *RedisMirror) SetStatus(ctx context.Context, jobID string, status job.Status) error {
	return m.client.Set(ctx, m.key(jobID), int(status), m.ttl).Err()
}

func (m *RedisMirror) GetStatus(ctx context.Context, jobID string) (job.Status, bool, error) {
	val, err := m.client.Get(ctx, m.key(jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return job.Status(n), true, nil
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}
