// Copyright 2025 Poiesic Systems
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

package archive

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progress prints a single rewritten status line as volumes complete.
// A nil writer disables output.
type progress struct {
	mu       sync.Mutex
	writer   io.Writer
	total    int
	done     int
	failed   int
	cases    int
	interval int
	last     int
	start    time.Time
}

func newProgress(w io.Writer, total, interval int) *progress {
	if interval < 1 {
		interval = 1
	}
	return &progress{writer: w, total: total, interval: interval, start: time.Now()}
}

// volume records one finished volume.
func (p *progress) volume(cases int, failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.cases += cases
	if failed {
		p.failed++
	}
	if p.done-p.last >= p.interval {
		p.report()
		p.last = p.done
	}
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// report prints the current progress. Must be called with lock held.
func (p *progress) report() {
	if p.writer == nil {
		return
	}
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}
	rate := 0.0
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = float64(p.cases) / elapsed
	}
	fmt.Fprintf(p.writer, "\rVolumes: %d/%d (%.1f%%), %d failed, %d cases - %.1f cases/s",
		p.done, p.total, percentage, p.failed, p.cases, rate)
}
