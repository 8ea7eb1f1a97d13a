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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	RecordStore   StoreConfig      `mapstructure:"record_store"`
	SnapshotStore StoreConfig      `mapstructure:"snapshot_store"`
	HistoryLog    StoreConfig      `mapstructure:"history_log"`
	StatusMirror  MirrorConfig     `mapstructure:"status_mirror"`
	Queue         QueueConfig      `mapstructure:"queue"`
	Restart       RestartConfig    `mapstructure:"restart"`
	Checkpoint    CheckpointConfig `mapstructure:"checkpoint"`
	Log           LogConfig        `mapstructure:"log"`
	Monitoring    MonitoringConfig `mapstructure:"monitoring"`
}

// StoreConfig 持久化存储配置（任务记录 / 提交快照 / 重试流水共用）
type StoreConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`  // Postgres 连接串，type=postgres 时必填
}

// MirrorConfig 状态镜像配置：其他调度节点 / UI 读取的分布式快路径
type MirrorConfig struct {
	Type      string `mapstructure:"type"`       // memory | redis
	Addr      string `mapstructure:"addr"`       // redis 地址，如 127.0.0.1:6379
	Password  string `mapstructure:"password"`   // 支持 ${ENV_VAR} 占位
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"` // 键前缀，空则默认 jobengine:status:
	TTL       string `mapstructure:"ttl"`        // 状态键过期时间，如 "24h"，空则不过期
}

// QueueConfig 执行队列配置
type QueueConfig struct {
	Capacity int `mapstructure:"capacity"` // 队列缓冲上限，<=0 使用默认 512
}

// RestartConfig 重启核心配置
type RestartConfig struct {
	// RequireCheckpoint 为 true 时，SYNC 任务开启 openCheckpoint 但解析不到上次
	// checkpoint 时中止重启；为 false（默认）时按无续跑点继续提交
	RequireCheckpoint bool `mapstructure:"require_checkpoint"`
	// StatusEventBuffer 状态回写事件通道容量，<=0 使用默认 256
	StatusEventBuffer int `mapstructure:"status_event_buffer"`
}

// CheckpointConfig checkpoint 解析配置
type CheckpointConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置（Prometheus 文本端点）
type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"` // 如 ":9108"
}

// MirrorTTL 解析状态镜像过期时间，空或非法返回 0（不过期）
func (c MirrorConfig) MirrorTTL() time.Duration {
	if c.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// LoadConfig 读取并解析配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// LoadRestartdConfig 加载 restartd 配置（configs/restartd.yaml）
func LoadRestartdConfig() (*Config, error) {
	return LoadConfig("configs/restartd.yaml")
}

// replaceEnvVars 替换配置中的 ${ENV_VAR} 占位（目前仅密码类字段）
func replaceEnvVars(config *Config) {
	config.StatusMirror.Password = expandEnv(config.StatusMirror.Password)
	config.RecordStore.DSN = expandEnv(config.RecordStore.DSN)
	config.SnapshotStore.DSN = expandEnv(config.SnapshotStore.DSN)
	config.HistoryLog.DSN = expandEnv(config.HistoryLog.DSN)
	config.Checkpoint.DSN = expandEnv(config.Checkpoint.DSN)
}

func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		if val := os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")); val != "" {
			return val
		}
	}
	return v
}
