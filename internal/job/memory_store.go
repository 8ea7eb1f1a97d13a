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
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "job-platform/pkg/errors"
)

// RecordStoreMem 内存实现：map + 互斥锁，读返回副本
type RecordStoreMem struct {
	mu   sync.Mutex
	byID map[string]*Record
}

// NewRecordStoreMem 创建内存 RecordStore
func NewRecordStoreMem() *RecordStoreMem {
	return &RecordStoreMem{byID: make(map[string]*Record)}
}

func (s *RecordStoreMem) Create(ctx context.Context, r *Record) error {
	if r == nil {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "record is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	cp := *r
	s.byID[r.JobID] = &cp
	return nil
}

func (s *RecordStoreMem) GetByJobID(ctx context.Context, jobID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[jobID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *RecordStoreMem) UpdateStatus(ctx context.Context, jobID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[jobID]
	if !ok {
		return nil // 不存在则静默
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	return nil
}

func (s *RecordStoreMem) UpdateRetryNum(ctx context.Context, jobID string, retryNum int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[jobID]
	if !ok {
		return nil
	}
	r.RetryNum = retryNum
	r.UpdatedAt = time.Now()
	return nil
}

// SnapshotStoreMem 内存实现
type SnapshotStoreMem struct {
	mu   sync.Mutex
	byID map[string]*Snapshot
}

// NewSnapshotStoreMem 创建内存 SnapshotStore
func NewSnapshotStoreMem() *SnapshotStoreMem {
	return &SnapshotStoreMem{byID: make(map[string]*Snapshot)}
}

func (s *SnapshotStoreMem) Put(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "snapshot is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now
	cp := *snap
	s.byID[snap.JobID] = &cp
	return nil
}

func (s *SnapshotStoreMem) GetByJobID(ctx context.Context, jobID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byID[jobID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (s *SnapshotStoreMem) Delete(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, jobID)
	return nil
}

// HistoryLogMem 内存实现：按追加顺序保存
type HistoryLogMem struct {
	mu      sync.Mutex
	entries []*RetryHistoryEntry
}

// NewHistoryLogMem 创建内存 HistoryLog
func NewHistoryLogMem() *HistoryLogMem {
	return &HistoryLogMem{}
}

func (s *HistoryLogMem) Append(ctx context.Context, e *RetryHistoryEntry) error {
	if e == nil {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "entry is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = "retry-" + uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *HistoryLogMem) ListByJobID(ctx context.Context, jobID string) ([]*RetryHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*RetryHistoryEntry
	for _, e := range s.entries {
		if e.JobID == jobID {
			cp := *e
			list = append(list, &cp)
		}
	}
	return list, nil
}
