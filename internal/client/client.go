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

package client

import (
	"encoding/json"
	"strings"

	"job-platform/internal/job"
	apperrors "job-platform/pkg/errors"
)

// JobType 任务类型
type JobType string

const (
	JobTypeSQL    JobType = "sql"
	JobTypeMR     JobType = "mr"
	JobTypePython JobType = "python"
	// JobTypeSync 流式同步任务，重启时支持从上次 checkpoint 续跑
	JobTypeSync JobType = "sync"
)

// 执行引擎类型；ParamAction.EngineType 为自由文本，匹配时忽略大小写
const (
	EngineFlink    = "flink"
	EngineSpark    = "spark"
	EngineKylin    = "kylin"
	EngineLearning = "learning"
)

// EngineTypeEqual 引擎类型比较，忽略大小写
func EngineTypeEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// ConfPropOpenCheckpoint SYNC 任务是否开启 checkpoint 续跑的配置键
const ConfPropOpenCheckpoint = "openCheckpoint"

// ParamAction 任务描述的线上格式：提交与重启共用，必须精确往返
type ParamAction struct {
	JobID          string            `json:"jobId"`
	JobType        JobType           `json:"jobType"`
	EngineType     string            `json:"engineType"`
	MaxRetryNum    int               `json:"maxRetryNum"`
	IsFailRetry    bool              `json:"isFailRetry"`
	PluginInfo     string            `json:"pluginInfo,omitempty"`     // 插件配置，JSON 文本
	SQLText        string            `json:"sqlText,omitempty"`        // 脚本 / SQL 正文
	ExternalPath   string            `json:"externalPath,omitempty"`   // checkpoint 续跑路径
	ConfProperties map[string]string `json:"confProperties,omitempty"` // 任务级配置项
}

// ParseParamAction 从 JSON 文本解析 ParamAction。
// 解析失败归类为快照损坏，调用方可用 errors.Is(err, ErrSnapshotCorrupt) 判别
func ParseParamAction(data string) (*ParamAction, error) {
	var pa ParamAction
	if err := json.Unmarshal([]byte(data), &pa); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSnapshotCorrupt, err.Error())
	}
	return &pa, nil
}

// Encode 序列化为 JSON 文本
func (pa *ParamAction) Encode() (string, error) {
	b, err := json.Marshal(pa)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JobResult 一次提交尝试的结果
type JobResult struct {
	// CheckRetry 为 false 时提交失败被归类为不可重试（如用户代码错误）
	CheckRetry bool   `json:"checkRetry"`
	MsgInfo    string `json:"msgInfo,omitempty"`
}

// StatusNotifier 任务终态回写通知。
// 取代源系统内嵌在描述符里的回调闭包：执行子系统发布事件，
// 由 RecordStore 持有方消费，避免跨线程共享可变捕获
type StatusNotifier interface {
	NotifyJobStatus(jobID string, status job.Status)
}

// JobClient 重启流程独占的可变任务句柄；单次重启尝试内使用，不跨并发共享
type JobClient struct {
	JobID          string
	JobType        JobType
	EngineType     string
	MaxRetryNum    int
	IsFailRetry    bool
	PluginInfo     string
	SQLText        string
	ExternalPath   string
	ConfProperties map[string]string

	// EngineTaskID / ApplicationID 由 Record 附加，用于引擎侧日志拉取
	EngineTaskID  string
	ApplicationID string

	// Result 最近一次提交尝试的结果；从未提交过时为 nil
	Result *JobResult

	// Notifier 终态回写通道；由 Rehydrator 安装，执行子系统调用
	Notifier StatusNotifier
}

// NewJobClient 从 ParamAction 构造 JobClient
func NewJobClient(pa *ParamAction) *JobClient {
	c := &JobClient{
		JobID:        pa.JobID,
		JobType:      pa.JobType,
		EngineType:   pa.EngineType,
		MaxRetryNum:  pa.MaxRetryNum,
		IsFailRetry:  pa.IsFailRetry,
		PluginInfo:   pa.PluginInfo,
		SQLText:      pa.SQLText,
		ExternalPath: pa.ExternalPath,
	}
	if len(pa.ConfProperties) > 0 {
		c.ConfProperties = make(map[string]string, len(pa.ConfProperties))
		for k, v := range pa.ConfProperties {
			c.ConfProperties[k] = v
		}
	}
	return c
}

// ParamAction 导出当前句柄状态为线上格式
func (c *JobClient) ParamAction() *ParamAction {
	pa := &ParamAction{
		JobID:        c.JobID,
		JobType:      c.JobType,
		EngineType:   c.EngineType,
		MaxRetryNum:  c.MaxRetryNum,
		IsFailRetry:  c.IsFailRetry,
		PluginInfo:   c.PluginInfo,
		SQLText:      c.SQLText,
		ExternalPath: c.ExternalPath,
	}
	if len(c.ConfProperties) > 0 {
		pa.ConfProperties = make(map[string]string, len(c.ConfProperties))
		for k, v := range c.ConfProperties {
			pa.ConfProperties[k] = v
		}
	}
	return pa
}

// ConfProperty 读取任务级配置项并去除首尾空白，无则返回 ""
func (c *JobClient) ConfProperty(key string) string {
	if c.ConfProperties == nil {
		return ""
	}
	return strings.TrimSpace(c.ConfProperties[key])
}

// OpenCheckpoint 解析 openCheckpoint 配置项（忽略大小写；缺失或非法视为未开启）
func (c *JobClient) OpenCheckpoint() bool {
	return strings.EqualFold(c.ConfProperty(ConfPropOpenCheckpoint), "true")
}

// SetPluginTag 向 PluginInfo JSON 中写入一个键值并重新序列化
func (c *JobClient) SetPluginTag(key string, value interface{}) error {
	pluginInfo := make(map[string]interface{})
	if c.PluginInfo != "" {
		if err := json.Unmarshal([]byte(c.PluginInfo), &pluginInfo); err != nil {
			return err
		}
	}
	pluginInfo[key] = value
	b, err := json.Marshal(pluginInfo)
	if err != nil {
		return err
	}
	c.PluginInfo = string(b)
	return nil
}

// PluginTag 读取 PluginInfo JSON 中的键值，无则返回 nil, false
func (c *JobClient) PluginTag(key string) (interface{}, bool) {
	if c.PluginInfo == "" {
		return nil, false
	}
	pluginInfo := make(map[string]interface{})
	if err := json.Unmarshal([]byte(c.PluginInfo), &pluginInfo); err != nil {
		return nil, false
	}
	v, ok := pluginInfo[key]
	return v, ok
}
