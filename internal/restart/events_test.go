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

	"job-platform/internal/job"
	"job-platform/pkg/log"
)

func TestStatusUpdaterAppliesEvents(t *testing.T) {
	ctx := context.Background()
	records := job.NewRecordStoreMem()
	if err := records.Create(ctx, &job.Record{JobID: "u1", Status: job.StatusRunning}); err != nil {
		t.Fatal(err)
	}
	if err := records.Create(ctx, &job.Record{JobID: "u2", Status: job.StatusRunning}); err != nil {
		t.Fatal(err)
	}

	u := NewStatusUpdater(records, 8, log.NewNop())
	u.Start()
	u.NotifyJobStatus("u1", job.StatusFailed)
	u.NotifyJobStatus("u2", job.StatusFinished)
	u.Stop()

	r1, _ := records.GetByJobID(ctx, "u1")
	if r1.Status != job.StatusFailed {
		t.Fatalf("u1 status = %v, want Failed", r1.Status)
	}
	r2, _ := records.GetByJobID(ctx, "u2")
	if r2.Status != job.StatusFinished {
		t.Fatalf("u2 status = %v, want Finished", r2.Status)
	}
}

func TestStatusUpdaterDrainsBacklogOnStop(t *testing.T) {
	ctx := context.Background()
	records := job.NewRecordStoreMem()
	if err := records.Create(ctx, &job.Record{JobID: "u3", Status: job.StatusRunning}); err != nil {
		t.Fatal(err)
	}

	// 消费循环未启动，事件全部积压在缓冲里
	u := NewStatusUpdater(records, 8, log.NewNop())
	u.NotifyJobStatus("u3", job.StatusFailed)
	u.NotifyJobStatus("u3", job.StatusRestarting)
	u.Start()
	u.Stop()

	r, _ := records.GetByJobID(ctx, "u3")
	if r.Status != job.StatusRestarting {
		t.Fatalf("status = %v, want Restarting", r.Status)
	}
}

func TestStatusUpdaterDropsAfterStop(t *testing.T) {
	ctx := context.Background()
	records := job.NewRecordStoreMem()
	if err := records.Create(ctx, &job.Record{JobID: "u4", Status: job.StatusRunning}); err != nil {
		t.Fatal(err)
	}

	u := NewStatusUpdater(records, 8, log.NewNop())
	u.Start()
	u.Stop()
	u.NotifyJobStatus("u4", job.StatusFailed) // 不阻塞、不生效

	r, _ := records.GetByJobID(ctx, "u4")
	if r.Status != job.StatusRunning {
		t.Fatalf("status = %v, want Running", r.Status)
	}
}
