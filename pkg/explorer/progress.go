// Copyright 2025 walteh LLC
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

package explorer

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/walteh/vfsops/pkg/transaction"
	"golang.org/x/time/rate"
)

// 📈 progressReader counts bytes and reports them at most once per interval
type progressReader struct {
	ctx    context.Context
	r      io.Reader
	total  int64
	read   atomic.Int64
	report transaction.ProgressFunc
	every  *rate.Sometimes
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, report transaction.ProgressFunc, interval time.Duration) *progressReader {
	return &progressReader{
		ctx:    ctx,
		r:      r,
		total:  total,
		report: report,
		every:  &rate.Sometimes{Interval: interval},
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := p.r.Read(b)
	if n > 0 {
		p.read.Add(int64(n))
		p.every.Do(p.emit)
	}
	return n, err
}

// finish always reports the final count, whatever the throttle says
func (p *progressReader) finish() {
	p.emit()
}

func (p *progressReader) transferred() int64 {
	return p.read.Load()
}

func (p *progressReader) emit() {
	read := p.read.Load()
	total := p.total
	if total < read {
		total = read
	}
	p.report(read, total)
}
