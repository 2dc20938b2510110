// Copyright 2025 Google LLC
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

//go:build unix

package wasi

import (
	"github.com/eapache/queue"
	"go.uber.org/zap"
)

// subscription is one registered interest: a clock or the readability or
// writability of a borrowed descriptor.
type subscription struct {
	userdata  Userdata
	eventtype Eventtype
	fd        int
	regular   bool // regular file: readiness nbytes reports the full size
}

// completion is the result of one subscription, staged between the wait and
// the callback drain.
type completion struct {
	userdata  Userdata
	errno     Errno
	eventtype Eventtype
	nbytes    Filesize
	flags     EventRwFlags
}

// multiplexer is the platform waitable set behind a Poller. register adds one
// subscription, waitOnce blocks until at least one is ready, drain hands each
// completion to f at most once.
type multiplexer interface {
	register(sub subscription) Errno
	waitOnce() Errno
	drain(f func(completion))
	len() int
}

// clockWaitable is one armed one-shot timer exposed as a pollable descriptor.
// The platform picks its strategy once at startup: a native timer descriptor
// where the kernel provides one, otherwise a runtime timer paired with a
// notification pipe.
type clockWaitable interface {
	fd() int
	close()
}

// Poller collects up to a fixed number of subscriptions and performs one
// blocking wait over all of them. A Poller is single use: after Wait returns,
// or after a registration has failed, every further call reports ErrnoInval.
//
// Read and Write subscriptions borrow the INode's descriptor; the INode must
// stay open until Wait returns. Clock subscriptions own their timer resource,
// which is released when Wait returns on any path, or by Close.
type Poller struct {
	capacity int
	spent    bool
	failed   Errno
	timers   []clockWaitable
	staged   *queue.Queue
	mux      multiplexer
}

// PollOneoff creates a Poller with capacity for nsubscriptions.
func PollOneoff(nsubscriptions Size) (*Poller, Errno) {
	if nsubscriptions == 0 {
		return nil, ErrnoInval
	}
	return &Poller{
		capacity: int(nsubscriptions),
		staged:   queue.New(),
		mux:      newMultiplexer(int(nsubscriptions)),
	}, ErrnoSuccess
}

// admit checks that the Poller can accept one more subscription.
func (p *Poller) admit() Errno {
	if p.spent || p.failed != ErrnoSuccess {
		return ErrnoInval
	}
	if p.mux.len() >= p.capacity {
		return ErrnoInval
	}
	return ErrnoSuccess
}

// fail marks the Poller unusable and releases every timer created so far. The
// errno is surfaced again by Wait.
func (p *Poller) fail(errno Errno) {
	p.failed = errno
	p.releaseTimers()
}

// Clock subscribes to the expiry of a one-shot timer on the given clock.
// Realtime and monotonic clocks are supported; timeout is an absolute
// deadline when flags carries SubclockFlagsAbstime, a relative delay
// otherwise. The precision hint is accepted but not used to coalesce.
func (p *Poller) Clock(
	id ClockID,
	timeout, precision Timestamp,
	flags SubclockFlags,
	userdata Userdata,
) Errno {
	if errno := p.admit(); errno != ErrnoSuccess {
		return errno
	}

	waitable, errno := newClockWaitable(id, timeout, flags)
	if errno != ErrnoSuccess {
		p.fail(errno)
		return errno
	}
	p.timers = append(p.timers, waitable)

	return p.mux.register(subscription{
		userdata:  userdata,
		eventtype: EventtypeClock,
		fd:        waitable.fd(),
	})
}

// Read subscribes to n becoming readable.
func (p *Poller) Read(n *INode, userdata Userdata) Errno {
	return p.fdSubscription(n, EventtypeFdRead, userdata)
}

// Write subscribes to n becoming writable.
func (p *Poller) Write(n *INode, userdata Userdata) Errno {
	return p.fdSubscription(n, EventtypeFdWrite, userdata)
}

func (p *Poller) fdSubscription(n *INode, eventtype Eventtype, userdata Userdata) Errno {
	if errno := p.admit(); errno != ErrnoSuccess {
		return errno
	}
	if n == nil || !n.ok() {
		return ErrnoBadF
	}

	ft, _ := n.Filetype()
	return p.mux.register(subscription{
		userdata:  userdata,
		eventtype: eventtype,
		fd:        n.get(),
		regular:   ft == FiletypeRegularFile,
	})
}

// Wait blocks until at least one subscription completes, then invokes
// callback once per completed subscription before returning. No subscription
// is reported more than once; the order of simultaneous completions is
// unspecified. The Poller cannot be reused afterwards.
func (p *Poller) Wait(callback Callback) Errno {
	defer p.releaseTimers()

	if p.spent {
		return ErrnoInval
	}
	p.spent = true

	if p.failed != ErrnoSuccess {
		return p.failed
	}
	if p.mux.len() == 0 {
		return ErrnoInval
	}

	if errno := p.mux.waitOnce(); errno != ErrnoSuccess {
		return errno
	}

	p.mux.drain(func(c completion) {
		p.staged.Add(c)
	})
	logger.Debug("poll wait done", zap.Int("completions", p.staged.Length()))

	for p.staged.Length() > 0 {
		c := p.staged.Remove().(completion)
		callback(c.userdata, c.errno, c.eventtype, c.nbytes, c.flags)
	}
	return ErrnoSuccess
}

// Close releases the Poller's timer resources without waiting. Safe to call
// more than once, including after Wait.
func (p *Poller) Close() {
	p.spent = true
	p.releaseTimers()
}

func (p *Poller) releaseTimers() {
	for _, t := range p.timers {
		t.close()
	}
	p.timers = nil
}
