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
	"fmt"

	liblog "github.com/nabbar/gomhd/logger"
)

func (o *runner) Start(ctx context.Context) error {
	o.m.Lock()
	if o.run {
		o.m.Unlock()
		return fmt.Errorf("runner already started")
	}
	if o.loop == nil {
		o.m.Unlock()
		return fmt.Errorf("runner has no loop")
	}

	o.ctx, o.cnl = context.WithCancel(ctx)
	o.don = make(chan struct{})
	o.run = true
	o.m.Unlock()

	go o.run_()
	return nil
}

func (o *runner) run_() {
	defer func() {
		if cnl := o.getCancel(); cnl != nil {
			cnl()
		}
		o.setRunning(false)
		close(o.getDone())
		o.logger().Entry(liblog.InfoLevel, "worker loop stopped").Check(liblog.NilLevel)
	}()

	o.setError(nil)
	o.setRunning(true)
	o.logger().Entry(liblog.InfoLevel, "worker loop starting").Check(liblog.NilLevel)

	err := o.loop(o.getContext())

	if err != nil {
		if x := o.getContext(); x != nil && x.Err() != nil {
			err = nil
		}
	}

	o.setError(err)
	o.logger().Entry(liblog.ErrorLevel, "worker loop returned").ErrorAdd(err).Check(liblog.NilLevel)
}

func (o *runner) Stop(ctx context.Context) error {
	if !o.IsRunning() {
		return nil
	}

	o.StopWaitNotify()

	if cnl := o.getCancel(); cnl != nil {
		cnl()
	}

	select {
	case <-o.getDone():
	case <-ctx.Done():
	}

	return o.GetError()
}

func (o *runner) Restart(ctx context.Context) error {
	if err := o.Stop(ctx); err != nil {
		return err
	}
	return o.Start(ctx)
}
