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
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "job-platform/pkg/errors"
)

// status 与 Status 一致：0=Unsubmit ... 8=Canceled
const (
	pgStatusUnsubmit     = 0
	pgStatusSubmitting   = 1
	pgStatusSubmitted    = 2
	pgStatusRunning      = 3
	pgStatusFinished     = 4
	pgStatusFailed       = 5
	pgStatusSubmitFailed = 6
	pgStatusRestarting   = 7
	pgStatusCanceled     = 8
)

func statusToPg(s Status) int {
	switch s {
	case StatusUnsubmit:
		return pgStatusUnsubmit
	case StatusSubmitting:
		return pgStatusSubmitting
	case StatusSubmitted:
		return pgStatusSubmitted
	case StatusRunning:
		return pgStatusRunning
	case StatusFinished:
		return pgStatusFinished
	case StatusFailed:
		return pgStatusFailed
	case StatusSubmitFailed:
		return pgStatusSubmitFailed
	case StatusRestarting:
		return pgStatusRestarting
	case StatusCanceled:
		return pgStatusCanceled
	default:
		return pgStatusUnsubmit
	}
}

func pgToStatus(i int) Status {
	switch i {
	case pgStatusUnsubmit:
		return StatusUnsubmit
	case pgStatusSubmitting:
		return StatusSubmitting
	case pgStatusSubmitted:
		return StatusSubmitted
	case pgStatusRunning:
		return StatusRunning
	case pgStatusFinished:
		return StatusFinished
	case pgStatusFailed:
		return StatusFailed
	case pgStatusSubmitFailed:
		return StatusSubmitFailed
	case pgStatusRestarting:
		return StatusRestarting
	case pgStatusCanceled:
		return StatusCanceled
	default:
		return StatusUnsubmit
	}
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, "解析 postgres 连接串失败")
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, apperrors.Wrap(err, "创建 postgres 连接池失败")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, "postgres 连接检测失败")
	}
	return pool, nil
}

// RecordStorePg Postgres 实现：schedule_jobs 表，调度侧与重启核心共享
type RecordStorePg struct {
	pool *pgxpool.Pool
}

// NewRecordStorePg 创建基于 PostgreSQL 的 RecordStore；dsn 为连接串
func NewRecordStorePg(ctx context.Context, dsn string) (*RecordStorePg, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &RecordStorePg{pool: pool}, nil
}

// Close 关闭连接池
func (s *RecordStorePg) Close() {
	s.pool.Close()
}

func (s *RecordStorePg) Create(ctx context.Context, r *Record) error {
	if r == nil {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "record is nil")
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO schedule_jobs (job_id, status, retry_num, engine_job_id, application_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.JobID, statusToPg(r.Status), r.RetryNum, nullStr(r.EngineJobID), nullStr(r.ApplicationID), r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *RecordStorePg) GetByJobID(ctx context.Context, jobID string) (*Record, error) {
	var r Record
	var status int
	var engineJobID, applicationID *string
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, status, retry_num, engine_job_id, application_id, created_at, updated_at FROM schedule_jobs WHERE job_id = $1`,
		jobID).Scan(&r.JobID, &status, &r.RetryNum, &engineJobID, &applicationID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Status = pgToStatus(status)
	if engineJobID != nil {
		r.EngineJobID = *engineJobID
	}
	if applicationID != nil {
		r.ApplicationID = *applicationID
	}
	return &r, nil
}

func (s *RecordStorePg) UpdateStatus(ctx context.Context, jobID string, status Status) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE schedule_jobs SET status = $1, updated_at = now() WHERE job_id = $2`,
		statusToPg(status), jobID)
	return err
}

func (s *RecordStorePg) UpdateRetryNum(ctx context.Context, jobID string, retryNum int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE schedule_jobs SET retry_num = $1, updated_at = now() WHERE job_id = $2`,
		retryNum, jobID)
	return err
}

// SnapshotStorePg Postgres 实现：engine_job_snapshots 表
type SnapshotStorePg struct {
	pool *pgxpool.Pool
}

// NewSnapshotStorePg 创建基于 PostgreSQL 的 SnapshotStore
func NewSnapshotStorePg(ctx context.Context, dsn string) (*SnapshotStorePg, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &SnapshotStorePg{pool: pool}, nil
}

// Close 关闭连接池
func (s *SnapshotStorePg) Close() {
	s.pool.Close()
}

func (s *SnapshotStorePg) Put(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "snapshot is nil")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO engine_job_snapshots (job_id, job_info, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (job_id) DO UPDATE SET job_info = EXCLUDED.job_info, updated_at = now()`,
		snap.JobID, snap.JobInfo)
	return err
}

func (s *SnapshotStorePg) GetByJobID(ctx context.Context, jobID string) (*Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, job_info, created_at, updated_at FROM engine_job_snapshots WHERE job_id = $1`,
		jobID).Scan(&snap.JobID, &snap.JobInfo, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *SnapshotStorePg) Delete(ctx context.Context, jobID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM engine_job_snapshots WHERE job_id = $1`, jobID)
	return err
}

// HistoryLogPg Postgres 实现：engine_job_retries 表，仅追加
type HistoryLogPg struct {
	pool *pgxpool.Pool
}

// NewHistoryLogPg 创建基于 PostgreSQL 的 HistoryLog
func NewHistoryLogPg(ctx context.Context, dsn string) (*HistoryLogPg, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &HistoryLogPg{pool: pool}, nil
}

// Close 关闭连接池
func (s *HistoryLogPg) Close() {
	s.pool.Close()
}

func (s *HistoryLogPg) Append(ctx context.Context, e *RetryHistoryEntry) error {
	if e == nil {
		return apperrors.Wrap(apperrors.ErrInvalidArg, "entry is nil")
	}
	id := e.ID
	if id == "" {
		id = "retry-" + uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO engine_job_retries (id, job_id, engine_job_id, application_id, retry_num, status, retry_params, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		id, e.JobID, nullStr(e.EngineJobID), nullStr(e.ApplicationID), e.RetryNum, statusToPg(e.Status), e.RetryParams)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (s *HistoryLogPg) ListByJobID(ctx context.Context, jobID string) ([]*RetryHistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, engine_job_id, application_id, retry_num, status, retry_params, created_at FROM engine_job_retries WHERE job_id = $1 ORDER BY created_at ASC`,
		jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*RetryHistoryEntry
	for rows.Next() {
		var e RetryHistoryEntry
		var status int
		var engineJobID, applicationID *string
		if err := rows.Scan(&e.ID, &e.JobID, &engineJobID, &applicationID, &e.RetryNum, &status, &e.RetryParams, &e.CreatedAt); err != nil {
			return nil, err
		}
		if engineJobID != nil {
			e.EngineJobID = *engineJobID
		}
		if applicationID != nil {
			e.ApplicationID = *applicationID
		}
		e.Status = pgToStatus(status)
		list = append(list, &e)
	}
	return list, rows.Err()
}
