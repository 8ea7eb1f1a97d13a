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

import "time"

// Status 任务状态
type Status int

const (
	StatusUnsubmit Status = iota
	StatusSubmitting
	StatusSubmitted
	StatusRunning
	StatusFinished
	StatusFailed
	StatusSubmitFailed
	StatusRestarting
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusUnsubmit:
		return "unsubmit"
	case StatusSubmitting:
		return "submitting"
	case StatusSubmitted:
		return "submitted"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	case StatusSubmitFailed:
		return "submit_failed"
	case StatusRestarting:
		return "restarting"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsStopped 任务是否已进入终态
func (s Status) IsStopped() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusSubmitFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsRestartCandidate 仅 Failed 与 SubmitFailed 是自动重试的候选状态
func (s Status) IsRestartCandidate() bool {
	return s == StatusFailed || s == StatusSubmitFailed
}

// Record 任务元数据：调度记录，状态与已重试次数的权威来源
type Record struct {
	JobID         string
	Status        Status
	RetryNum      int    // 已重试次数，单调不减，仅由外部流程重置
	EngineJobID   string // 执行引擎侧任务 id，用于日志 / 诊断拉取
	ApplicationID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot 最近一次提交参数的持久化快照；提交链路写入，本核心只读
type Snapshot struct {
	JobID     string
	JobInfo   string // ParamAction 的 JSON 序列化
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RetryHistoryEntry 重试流水：每次接受重启时追加，写入后不再修改
type RetryHistoryEntry struct {
	ID            string
	JobID         string
	EngineJobID   string
	ApplicationID string
	RetryNum      int
	Status        Status
	RetryParams   string // 重启时使用的 ParamAction JSON
	CreatedAt     time.Time
}
