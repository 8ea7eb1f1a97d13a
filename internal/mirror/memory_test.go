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
	"testing"

	"job-platform/internal/job"
)

func TestMemoryMirror(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMirror()

	_, ok, err := m.GetStatus(ctx, "job-a")
	if ok || err != nil {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}

	if err := m.SetStatus(ctx, "job-a", job.StatusRestarting); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	s, ok, _ := m.GetStatus(ctx, "job-a")
	if !ok || s != job.StatusRestarting {
		t.Errorf("expected restarting, got %v ok=%v", s, ok)
	}

	// 绝对值覆盖
	_ = m.SetStatus(ctx, "job-a", job.StatusRunning)
	s, _, _ = m.GetStatus(ctx, "job-a")
	if s != job.StatusRunning {
		t.Errorf("expected running after overwrite, got %v", s)
	}
}
