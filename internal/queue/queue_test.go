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

package queue

import (
	"context"
	"testing"
	"time"

	"job-platform/internal/client"
)

func TestMemoryQueue_SubmitTake(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(4)

	if !q.Submit(ctx, &client.JobClient{JobID: "job-a"}) {
		t.Fatal("expected submit accepted")
	}
	if q.Len() != 1 {
		t.Errorf("expected depth 1, got %d", q.Len())
	}

	c, ok := q.Take(ctx)
	if !ok || c.JobID != "job-a" {
		t.Errorf("expected job-a, got %v ok=%v", c, ok)
	}
}

func TestMemoryQueue_RejectsWhenFull(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(1)

	if !q.Submit(ctx, &client.JobClient{JobID: "job-a"}) {
		t.Fatal("first submit should be accepted")
	}
	if q.Submit(ctx, &client.JobClient{JobID: "job-b"}) {
		t.Error("second submit should be rejected when full")
	}
}

func TestMemoryQueue_TakeHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c, ok := q.Take(ctx)
	if ok || c != nil {
		t.Errorf("expected nil, false on context cancel, got %v ok=%v", c, ok)
	}
}
