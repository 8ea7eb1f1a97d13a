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
	"sync"
	"testing"
)

func TestKeyLockMutualExclusion(t *testing.T) {
	l := newKeyLock()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("job-x")
			counter++
			l.Unlock("job-x")
		}()
	}
	wg.Wait()
	if counter != 32 {
		t.Fatalf("counter = %d, want 32", counter)
	}
}

func TestKeyLockIndependentKeys(t *testing.T) {
	l := newKeyLock()
	l.Lock("a")
	done := make(chan struct{})
	go func() {
		// 不同 key 互不阻塞
		l.Lock("b")
		l.Unlock("b")
		close(done)
	}()
	<-done
	l.Unlock("a")
}

func TestKeyLockReleasesEntries(t *testing.T) {
	l := newKeyLock()
	for i := 0; i < 8; i++ {
		l.Lock("job-y")
		l.Unlock("job-y")
	}
	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("entries left = %d, want 0", n)
	}
}
