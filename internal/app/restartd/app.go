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

package restartd

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"job-platform/internal/checkpoint"
	"job-platform/internal/job"
	"job-platform/internal/mirror"
	"job-platform/internal/queue"
	"job-platform/internal/restart"
	"job-platform/pkg/config"
	"job-platform/pkg/log"
	"job-platform/pkg/metrics"
)

// FailureEvent 失败检测链路送入的状态变更信号
type FailureEvent struct {
	JobID  string
	Status job.Status
}

// App restartd 应用：配置 → 存储 → 重启协调器 → 失败事件循环
type App struct {
	config     *config.Config
	logger     *log.Logger
	records    job.RecordStore
	snapshots  job.SnapshotStore
	history    job.HistoryLog
	mirror     mirror.Mirror
	queue      *queue.MemoryQueue
	dealer     *restart.Dealer
	updater    *restart.StatusUpdater
	events     chan FailureEvent
	metricsSrv *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewApp 创建 restartd 应用
func NewApp(cfg *config.Config) (*App, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	ctx := context.Background()
	records, err := job.NewRecordStore(ctx, cfg.RecordStore)
	if err != nil {
		return nil, fmt.Errorf("初始化任务记录存储失败: %w", err)
	}
	snapshots, err := job.NewSnapshotStore(ctx, cfg.SnapshotStore)
	if err != nil {
		return nil, fmt.Errorf("初始化提交快照存储失败: %w", err)
	}
	history, err := job.NewHistoryLog(ctx, cfg.HistoryLog)
	if err != nil {
		return nil, fmt.Errorf("初始化重试流水存储失败: %w", err)
	}
	m, err := mirror.NewMirror(ctx, cfg.StatusMirror)
	if err != nil {
		return nil, fmt.Errorf("初始化状态镜像失败: %w", err)
	}
	resolver, err := checkpoint.NewResolver(ctx, cfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("初始化 checkpoint 解析器失败: %w", err)
	}

	q := queue.NewMemoryQueue(cfg.Queue.Capacity)
	updater := restart.NewStatusUpdater(records, cfg.Restart.StatusEventBuffer, logger)
	rehydrator := restart.NewRehydrator(resolver, cfg.Restart.RequireCheckpoint, logger)
	dealer := restart.NewDealer(snapshots, records, history, m, q, rehydrator, updater, logger)

	return &App{
		config:    cfg,
		logger:    logger,
		records:   records,
		snapshots: snapshots,
		history:   history,
		mirror:    m,
		queue:     q,
		dealer:    dealer,
		updater:   updater,
		events:    make(chan FailureEvent, 1024),
	}, nil
}

// Start 启动状态回写器、失败事件循环与监控端点
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.updater.Start()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-a.events:
				a.handle(ctx, ev)
			}
		}
	}()

	if a.config.Monitoring.Enabled {
		addr := a.config.Monitoring.Addr
		if addr == "" {
			addr = ":9108"
		}
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			if err := metrics.WritePrometheus(w); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		})
		a.metricsSrv = &http.Server{Addr: addr, Handler: mux}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("监控端点退出", "err", err)
			}
		}()
	}

	a.logger.Info("restartd 已启动")
	return nil
}

// Notify 送入一条失败事件；队列满时阻塞
func (a *App) Notify(ev FailureEvent) {
	a.events <- ev
}

// Queue 暴露执行队列，供实际拉起任务的执行器消费
func (a *App) Queue() *queue.MemoryQueue {
	return a.queue
}

// Dealer 暴露重启协调器，供提交链路按提交结果判定重试
func (a *App) Dealer() *restart.Dealer {
	return a.dealer
}

func (a *App) handle(ctx context.Context, ev FailureEvent) {
	record, err := a.records.GetByJobID(ctx, ev.JobID)
	if err != nil {
		a.logger.Error("读取任务记录失败，事件被忽略", "jobId", ev.JobID, "err", err)
		return
	}
	if record == nil {
		a.logger.Info("任务记录缺失，事件被忽略", "jobId", ev.JobID)
		return
	}
	snap, err := a.snapshots.GetByJobID(ctx, ev.JobID)
	if err != nil {
		a.logger.Error("读取提交快照失败，事件被忽略", "jobId", ev.JobID, "err", err)
		return
	}
	a.dealer.RestartForStatus(ctx, ev.Status, record, snap)
}

// Shutdown 优雅关闭
func (a *App) Shutdown(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = a.metricsSrv.Shutdown(shutdownCtx)
	}
	a.wg.Wait()
	a.updater.Stop()
	_ = a.mirror.Close()
	a.logger.Info("restartd 已关闭")
	return nil
}
