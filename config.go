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

package gomhd

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nabbar/gomhd/backend/external"
	"github.com/nabbar/gomhd/conn"
	"github.com/nabbar/gomhd/errors"
	"github.com/nabbar/gomhd/types"
)

// Config is the daemon_start configuration (§6): listen endpoint, the
// connection and pool sizing the worker loop enforces, the parsing
// strictness level, scheduling mode, socket tuning, and the
// application's callbacks.
type Config struct {
	// Name identifies this daemon in logs and in its Monitor snapshot.
	Name string `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`

	// Listen is the local bind address ("host:port" or "unix:/path").
	// Ignored if Listener is already set.
	Listen string `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen" validate:"required_without=Listener"`

	// Listener lets the application hand gomhd an already-bound,
	// already-listening socket instead of having it call net.Listen
	// itself (§6 "listen socket (optional, pre-bound)").
	Listener net.Listener `mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// ConnLimit bounds the number of simultaneously open connections;
	// accept pacing (§4.4) throttles toward this ceiling rather than
	// enforcing it with a hard reject.
	ConnLimit int `mapstructure:"conn_limit" json:"conn_limit" yaml:"conn_limit" toml:"conn_limit" validate:"required,min=1"`

	// PoolSize is the per-connection memory arena size in bytes (§4.1).
	PoolSize uint32 `mapstructure:"pool_size" json:"pool_size" yaml:"pool_size" toml:"pool_size" validate:"required,min=1024"`

	// IdleTimeout closes a connection that has seen no activity for
	// this long; zero disables idle timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`

	// Strictness gates the lenient-parsing ladder (§4.7); zero is
	// strictly RFC-conformant.
	Strictness types.Strictness `mapstructure:"strictness" json:"strictness" yaml:"strictness" toml:"strictness"`

	// WorkMode selects the accept-pacing schedule (§4.4). Every mode,
	// WorkThreadPool included, runs the same single worker-loop
	// goroutine; no mode starts additional loops.
	WorkMode conn.WorkMode `mapstructure:"work_mode" json:"work_mode" yaml:"work_mode" toml:"work_mode"`

	// Workers is the worker count conn.AcceptBurst divides the
	// WorkThreadPool accept burst by (values below 1 count as 1); it is
	// ignored in other modes. It does not change how many worker-loop
	// goroutines run: the daemon always runs one.
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers" toml:"workers"`

	// ExternalRegister, when set, selects the external backend (§4.2
	// "external") whatever WorkMode says: the application drives
	// readiness itself, and the daemon asks it through this callback to
	// watch or stop watching each descriptor.
	ExternalRegister external.RegisterFunc `mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// TCPNoDelay and TCPCork are advisory socket tuning hints applied
	// to each accepted connection (§4.5's cork note); a transport that
	// refuses them is not treated as an error.
	TCPNoDelay bool `mapstructure:"tcp_nodelay" json:"tcp_nodelay" yaml:"tcp_nodelay" toml:"tcp_nodelay"`
	TCPCork    bool `mapstructure:"tcp_cork" json:"tcp_cork" yaml:"tcp_cork" toml:"tcp_cork"`

	// TCPFastOpen enables server-side TCP Fast Open on the listen
	// socket, applied once when the listener is opened rather than
	// per connection; a platform without TFO support silently ignores
	// it.
	TCPFastOpen bool `mapstructure:"tcp_fastopen" json:"tcp_fastopen" yaml:"tcp_fastopen" toml:"tcp_fastopen"`

	// TLS optionally upgrades accepted connections to TLS via
	// certtls.WrapTLS; nil means plaintext HTTP.
	TLS *tls.Config `mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// IncludeErrorBody toggles whether canned error responses carry an
	// HTML body (§7 "content body elided if auto-bodies are disabled").
	IncludeErrorBody bool `mapstructure:"include_error_body" json:"include_error_body" yaml:"include_error_body" toml:"include_error_body"`

	// RequestHandler is the application's per-request callback (§6
	// "request_cb(app_ctx, &request, &path, method, content_len) →
	// Action"); mandatory.
	RequestHandler FuncHandler `mapstructure:"-" json:"-" yaml:"-" toml:"-" validate:"required"`

	// NotifyConn, if set, is called on connection accept and close.
	NotifyConn NotifyConnFunc `mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// URILog, if set, is called once per completed request.
	URILog URILogFunc `mapstructure:"-" json:"-" yaml:"-" toml:"-"`

	// PanicHandler is invoked from the invariant checks the engine
	// cannot recover from (§6, §10.5); defaults to log-then-exit.
	PanicHandler func(error) `mapstructure:"-" json:"-" yaml:"-" toml:"-"`
}

// Clone returns a shallow copy of cfg - safe here because every field
// is either a value type or a pointer/func/interface the clone is
// meant to share with the original (the listener, the TLS config, the
// callbacks).
func (c Config) Clone() Config {
	return c
}

// Validate runs struct-tag validation via validator/v10; validator
// errors are collected into a single chained Error rather than
// returned raw.
func (c Config) Validate() error {
	val := validator.New()
	err := val.Struct(c)
	if err == nil {
		return nil
	}

	if _, ok := err.(*validator.InvalidValidationError); ok {
		return errors.New(ErrConfigInvalid, err)
	}

	out := errors.New(ErrConfigInvalid)
	for _, e := range err.(validator.ValidationErrors) {
		out.Add(fmt.Errorf("config field %q failed constraint %q", e.Field(), e.ActualTag()))
	}
	return out
}

// bindable reports the address a Monitor snapshot and Info.Bindable()
// should report: the pre-bound listener's address if one was supplied,
// else the configured Listen string.
func (c Config) bindable() string {
	if c.Listener != nil {
		return c.Listener.Addr().String()
	}
	return c.Listen
}
