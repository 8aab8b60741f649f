// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package backoff

import (
	"math/rand"
	"time"
)

// done is returned by Retrier.NextBackOff to signal that no more retries should be attempted.
const done time.Duration = -1

// Clock is the subset of time used by the retrier, overridable in tests.
type Clock func() time.Time

// SystemClock is the real wall clock.
var SystemClock Clock = time.Now

type (
	// RetryPolicy describes how a Retrier computes successive backoff intervals.
	RetryPolicy interface {
		InitialInterval() time.Duration
		BackoffCoefficient() float64
		MaximumInterval() time.Duration
		MaximumAttempts() int
		ExpirationInterval() time.Duration
	}

	// ExponentialRetryPolicy is the default RetryPolicy: exponential backoff with a cap and
	// an optional attempt/elapsed-time budget.
	ExponentialRetryPolicy struct {
		initialInterval    time.Duration
		backoffCoefficient float64
		maximumInterval    time.Duration
		maximumAttempts    int
		expirationInterval time.Duration
	}

	// Retrier computes the next backoff interval for a single retry sequence.
	Retrier interface {
		NextBackOff() time.Duration
		Reset()
	}

	retrierImpl struct {
		policy      RetryPolicy
		clock       Clock
		currentAttempt int
		startTime   time.Time
	}
)

// NewExponentialRetryPolicy returns a RetryPolicy with the given initial interval and sane
// defaults (2x coefficient, no attempt/expiration cap).
func NewExponentialRetryPolicy(initialInterval time.Duration) *ExponentialRetryPolicy {
	return &ExponentialRetryPolicy{
		initialInterval:    initialInterval,
		backoffCoefficient: 2.0,
		maximumInterval:    0,
		maximumAttempts:    0,
		expirationInterval: 0,
	}
}

func (p *ExponentialRetryPolicy) WithMaximumInterval(d time.Duration) *ExponentialRetryPolicy {
	p.maximumInterval = d
	return p
}

func (p *ExponentialRetryPolicy) WithBackoffCoefficient(c float64) *ExponentialRetryPolicy {
	p.backoffCoefficient = c
	return p
}

func (p *ExponentialRetryPolicy) WithMaximumAttempts(n int) *ExponentialRetryPolicy {
	p.maximumAttempts = n
	return p
}

func (p *ExponentialRetryPolicy) WithExpirationInterval(d time.Duration) *ExponentialRetryPolicy {
	p.expirationInterval = d
	return p
}

func (p *ExponentialRetryPolicy) InitialInterval() time.Duration    { return p.initialInterval }
func (p *ExponentialRetryPolicy) BackoffCoefficient() float64       { return p.backoffCoefficient }
func (p *ExponentialRetryPolicy) MaximumInterval() time.Duration    { return p.maximumInterval }
func (p *ExponentialRetryPolicy) MaximumAttempts() int              { return p.maximumAttempts }
func (p *ExponentialRetryPolicy) ExpirationInterval() time.Duration { return p.expirationInterval }

// NewRetrier returns a Retrier following policy, using clock to measure elapsed time for
// ExpirationInterval.
func NewRetrier(policy RetryPolicy, clock Clock) Retrier {
	return &retrierImpl{policy: policy, clock: clock, startTime: clock()}
}

func (r *retrierImpl) Reset() {
	r.currentAttempt = 0
	r.startTime = r.clock()
}

func (r *retrierImpl) NextBackOff() time.Duration {
	policy := r.policy
	if policy.MaximumAttempts() > 0 && r.currentAttempt >= policy.MaximumAttempts() {
		return done
	}
	if policy.ExpirationInterval() > 0 && r.clock().Sub(r.startTime) > policy.ExpirationInterval() {
		return done
	}

	interval := float64(policy.InitialInterval()) * pow(policy.BackoffCoefficient(), r.currentAttempt)
	if policy.MaximumInterval() > 0 && time.Duration(interval) > policy.MaximumInterval() {
		interval = float64(policy.MaximumInterval())
	}
	r.currentAttempt++

	// full jitter: uniform in [0, interval]
	jittered := rand.Int63n(int64(interval) + 1) // #nosec G404 -- jitter only, not security sensitive
	return time.Duration(jittered)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
