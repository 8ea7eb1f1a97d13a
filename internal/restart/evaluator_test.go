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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-platform/internal/client"
	"job-platform/internal/job"
	"job-platform/pkg/log"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *job.RecordStoreMem) {
	t.Helper()
	records := job.NewRecordStoreMem()
	return NewEvaluator(records, log.NewNop()), records
}

func snapshotFor(t *testing.T, pa *client.ParamAction) *job.Snapshot {
	t.Helper()
	info, err := pa.Encode()
	require.NoError(t, err)
	return &job.Snapshot{JobID: pa.JobID, JobInfo: info}
}

func TestCheckSubmitResult_NoResultIsEligible(t *testing.T) {
	e, _ := newTestEvaluator(t)
	// 从未提交过的任务始终是重试候选，即使 isFailRetry 为 false
	c := &client.JobClient{JobID: "job-a", IsFailRetry: false, Result: nil}
	assert.True(t, e.CheckSubmitResult(c))
}

func TestCheckSubmitResult_CheckRetryFalse(t *testing.T) {
	e, _ := newTestEvaluator(t)
	c := &client.JobClient{
		JobID:       "job-a",
		IsFailRetry: true,
		Result:      &client.JobResult{CheckRetry: false, MsgInfo: "user code error"},
	}
	assert.False(t, e.CheckSubmitResult(c))
}

func TestCheckSubmitResult_FailRetryFalse(t *testing.T) {
	e, _ := newTestEvaluator(t)
	c := &client.JobClient{
		JobID:       "job-a",
		IsFailRetry: false,
		Result:      &client.JobResult{CheckRetry: true},
	}
	assert.False(t, e.CheckSubmitResult(c))
}

func TestCheckStatus_NonCandidateShortCircuits(t *testing.T) {
	e, _ := newTestEvaluator(t)
	// 非候选状态在读取快照之前返回：坏快照也不报错
	corrupt := &job.Snapshot{JobID: "job-a", JobInfo: "{broken"}
	for _, s := range []job.Status{job.StatusRunning, job.StatusFinished, job.StatusCanceled, job.StatusRestarting} {
		c, ok := e.CheckStatus(s, "job-a", corrupt)
		assert.False(t, ok, "status %s", s)
		assert.Nil(t, c)
	}
}

func TestCheckStatus_SnapshotMissingOrCorrupt(t *testing.T) {
	e, _ := newTestEvaluator(t)

	c, ok := e.CheckStatus(job.StatusFailed, "job-a", nil)
	assert.False(t, ok)
	assert.Nil(t, c)

	c, ok = e.CheckStatus(job.StatusFailed, "job-a", &job.Snapshot{JobID: "job-a", JobInfo: "{broken"})
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestCheckStatus_FailRetryFalse(t *testing.T) {
	e, _ := newTestEvaluator(t)
	snap := snapshotFor(t, &client.ParamAction{JobID: "job-a", IsFailRetry: false, MaxRetryNum: 3})
	_, ok := e.CheckStatus(job.StatusFailed, "job-a", snap)
	assert.False(t, ok)
}

func TestCheckStatus_EligibleRebuildsClient(t *testing.T) {
	e, _ := newTestEvaluator(t)
	snap := snapshotFor(t, &client.ParamAction{
		JobID:       "job-a",
		JobType:     client.JobTypeSQL,
		EngineType:  client.EngineFlink,
		IsFailRetry: true,
		MaxRetryNum: 3,
		SQLText:     "select 1",
	})

	for _, s := range []job.Status{job.StatusFailed, job.StatusSubmitFailed} {
		c, ok := e.CheckStatus(s, "job-a", snap)
		require.True(t, ok, "status %s", s)
		assert.Equal(t, "job-a", c.JobID)
		assert.Equal(t, 3, c.MaxRetryNum)
		assert.Equal(t, "select 1", c.SQLText)
	}
}

func TestReachedCeiling(t *testing.T) {
	ctx := context.Background()
	e, records := newTestEvaluator(t)

	// 记录缺失视为 0 次
	n, reached := e.ReachedCeiling(ctx, "missing", 3)
	assert.Equal(t, 0, n)
	assert.False(t, reached)

	require.NoError(t, records.Create(ctx, &job.Record{JobID: "job-a", Status: job.StatusFailed, RetryNum: 2}))
	n, reached = e.ReachedCeiling(ctx, "job-a", 3)
	assert.Equal(t, 2, n)
	assert.False(t, reached)

	require.NoError(t, records.UpdateRetryNum(ctx, "job-a", 3))
	n, reached = e.ReachedCeiling(ctx, "job-a", 3)
	assert.Equal(t, 3, n)
	assert.True(t, reached)

	// 超过上限同样拦截
	require.NoError(t, records.UpdateRetryNum(ctx, "job-a", 5))
	_, reached = e.ReachedCeiling(ctx, "job-a", 3)
	assert.True(t, reached)
}
