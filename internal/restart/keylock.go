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

import "sync"

// keyLock 按任务 id 的互斥锁，引用计数回收，避免锁表无界增长。
// 同一任务的 "检查重试上限 → 入队 → 递增重试次数" 必须在同一把锁内完成，
// 否则两次并发的失败检测会同时通过上限检查造成双重入队
type keyLock struct {
	mu      sync.Mutex
	entries map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{entries: make(map[string]*keyLockEntry)}
}

func (l *keyLock) Lock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyLockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
}

func (l *keyLock) Unlock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if ok {
		e.refs--
		if e.refs <= 0 {
			delete(l.entries, key)
		}
	}
	l.mu.Unlock()
	if ok {
		e.mu.Unlock()
	}
}
