/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package runner

import (
	"context"
	"sync"
	"time"

	liblog "github.com/nabbar/gomhd/logger"
)

type runner struct {
	m   sync.RWMutex
	loop Loop
	log liblog.FuncLog
	err error
	ctx context.Context
	cnl context.CancelFunc
	chn chan struct{}
	don chan struct{}
	run bool
	start time.Time
}

func (o *runner) getDone() chan struct{} {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.don
}

func (o *runner) logger() liblog.Logger {
	o.m.RLock()
	f := o.log
	o.m.RUnlock()

	if f == nil {
		return liblog.New()
	} else if l := f(); l != nil {
		return l
	}
	return liblog.New()
}

func (o *runner) getContext() context.Context {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.ctx
}

func (o *runner) getCancel() context.CancelFunc {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.cnl
}

func (o *runner) setRunning(flag bool) {
	o.m.Lock()
	defer o.m.Unlock()
	o.run = flag
	if flag {
		o.start = time.Now()
	}
}

func (o *runner) IsRunning() bool {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.run
}

func (o *runner) Uptime() time.Duration {
	o.m.RLock()
	defer o.m.RUnlock()
	if !o.run || o.start.IsZero() {
		return 0
	}
	return time.Since(o.start)
}

func (o *runner) GetError() error {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.err
}

func (o *runner) setError(err error) {
	o.m.Lock()
	defer o.m.Unlock()
	o.err = err
}
