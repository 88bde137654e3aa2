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


package enrich

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a single, carriage-return-refreshed status line
// for batch work over a known number of candidates. It is safe for
// concurrent use.
type ProgressTracker struct {
	mu      sync.Mutex
	out     io.Writer
	total   int
	done    int
	every   int
	next    int
	started time.Time
}

// NewProgressTracker reports to out every time at least every more
// candidates have been processed.
func NewProgressTracker(out io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{out: out, total: total, every: max(every, 1)}
}

// Start resets the count and starts the clock. Calls made before Start are
// ignored.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = time.Now()
	p.done = 0
	p.next = p.every
}

// Increment records n more processed candidates.
func (p *ProgressTracker) Increment(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.IsZero() {
		return
	}
	p.done = min(p.done+n, p.total)
	if p.done >= p.next {
		p.print()
		p.next = p.done + p.every
	}
}

// Finish prints the completed line and a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.IsZero() {
		return
	}
	p.done = p.total
	p.print()
	fmt.Fprintln(p.out)
}

// Elapsed is the time since Start, or zero if Start was never called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}

func (p *ProgressTracker) print() {
	elapsed := time.Since(p.started)
	pct := 100.0
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	var perSecond float64
	if s := elapsed.Seconds(); s > 0 {
		perSecond = float64(p.done) / s
	}
	eta := "-"
	if perSecond > 0 && p.done < p.total {
		remaining := float64(p.total-p.done) / perSecond
		eta = time.Duration(remaining * float64(time.Second)).Round(time.Second).String()
	}
	fmt.Fprintf(p.out, "\rCandidates: %d/%d (%.1f%%) %.1f/s eta %s", p.done, p.total, pct, perSecond, eta)
}
