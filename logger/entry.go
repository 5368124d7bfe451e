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

// Package logger wraps logrus behind a small chainable Entry builder so the
// rest of gomhd never imports logrus directly.
package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the contract every gomhd component logs through.
type Logger interface {
	Entry(lvl Level, message string) *Entry
	SetLevel(lvl Level)
	GetLevel() Level
	Logrus() *logrus.Logger
}

// FuncLog lets a component accept its logger lazily, resolved at call
// time rather than construction time, so a Config can rewire logging
// after a daemon already exists.
type FuncLog func() Logger

type lg struct {
	mu  sync.RWMutex
	log *logrus.Logger
	lvl Level
}

// New returns a Logger wrapping a fresh logrus.Logger at InfoLevel.
func New() Logger {
	l := logrus.New()
	l.SetLevel(InfoLevel.logrus())
	return &lg{log: l, lvl: InfoLevel}
}

// NewWith wraps an existing *logrus.Logger instead of creating one, for
// callers that already manage logrus output/formatter configuration.
func NewWith(l *logrus.Logger) Logger {
	if l == nil {
		return New()
	}
	return &lg{log: l, lvl: InfoLevel}
}

func (o *lg) Entry(lvl Level, message string) *Entry {
	return &Entry{lg: o, lvl: lvl, msg: message}
}

func (o *lg) SetLevel(lvl Level) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lvl = lvl
	o.log.SetLevel(lvl.logrus())
}

func (o *lg) GetLevel() Level {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lvl
}

func (o *lg) Logrus() *logrus.Logger {
	return o.log
}

// Entry accumulates fields and an optional error chain before being
// flushed with Check. The zero value is not usable; obtain one through
// Logger.Entry.
type Entry struct {
	lg     *lg
	lvl    Level
	msg    string
	fields logrus.Fields
	errs   []error
}

// FieldAdd attaches a structured field to the entry and returns it for
// chaining.
func (e *Entry) FieldAdd(key string, val any) *Entry {
	if e == nil {
		return e
	}
	if e.fields == nil {
		e.fields = make(logrus.Fields)
	}
	e.fields[key] = val
	return e
}

// ErrorAdd attaches one or more errors to the entry; nil errors are
// ignored so call sites can pass the direct result of a fallible call.
func (e *Entry) ErrorAdd(err ...error) *Entry {
	if e == nil {
		return e
	}
	for _, er := range err {
		if er != nil {
			e.errs = append(e.errs, er)
		}
	}
	return e
}

// Check flushes the entry at its configured level unless that level is
// NilLevel or equals silent. It does not look at whether ErrorAdd
// attached any error: an entry without errors is logged the same way,
// and any errors it does carry are added as the "error"/"errors" field.
func (e *Entry) Check(silent Level) {
	if e == nil || e.lg == nil {
		return
	}
	if e.lvl == silent {
		return
	}
	if e.lvl == NilLevel {
		return
	}

	fields := e.fields
	if len(e.errs) > 0 {
		if fields == nil {
			fields = make(logrus.Fields)
		}
		if len(e.errs) == 1 {
			fields["error"] = e.errs[0].Error()
		} else {
			msgs := make([]string, 0, len(e.errs))
			for _, er := range e.errs {
				msgs = append(msgs, er.Error())
			}
			fields["errors"] = msgs
		}
	}

	e.lg.log.WithFields(fields).Log(e.lvl.logrus(), e.msg)
}
