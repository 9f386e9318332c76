// Package reconnect retries a dropped chat connection with exponential
// backoff. It only uses the public session API, so the connection state
// machine itself stays manual.
package reconnect

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Target is the part of a session the policy drives.
type Target interface {
	Subscribe() (<-chan core.ClientState, func())
	RequestReconnect()
}

// Config tunes the backoff schedule.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// MaxAttempts stops retrying after this many consecutive failures; zero retries forever.
	MaxAttempts int
}

// Policy watches a target and requests a reconnect whenever it drops.
type Policy struct {
	target  Target
	backoff backoff.BackOff
	max     int
	log     *zerolog.Logger
}

// New builds a policy for target.
func New(target Target, cfg Config, logger *zerolog.Logger) *Policy {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	if cfg.Multiplier > 0 {
		b.Multiplier = cfg.Multiplier
	}
	return NewWithBackOff(target, b, cfg.MaxAttempts, logger)
}

// NewWithBackOff builds a policy with a custom schedule.
func NewWithBackOff(target Target, b backoff.BackOff, maxAttempts int, logger *zerolog.Logger) *Policy {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Policy{target: target, backoff: b, max: maxAttempts, log: logger}
}

// Run blocks until ctx is done or the target's updates end.
func (p *Policy) Run(ctx context.Context) {
	updates, cancel := p.target.Subscribe()
	defer cancel()

	var (
		timer    *time.Timer
		fire     <-chan time.Time
		attempts int
		seen     bool // a connection was attempted at least once
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, fire = nil, nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			switch st.Connection {
			case core.Connected:
				stopTimer()
				attempts = 0
				p.backoff.Reset()
				seen = true
			case core.Connecting:
				stopTimer()
				seen = true
			case core.Disconnected, core.Errored:
				if !seen || timer != nil {
					continue
				}
				if p.max > 0 && attempts >= p.max {
					p.log.Warn().Int("attempts", attempts).Msg("giving up reconnecting")
					continue
				}
				wait := p.backoff.NextBackOff()
				if wait == backoff.Stop {
					continue
				}
				p.log.Info().Dur("in", wait).Stringer("state", st.Connection).Msg("scheduling reconnect")
				timer = time.NewTimer(wait)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			attempts++
			p.log.Info().Int("attempt", attempts).Msg("reconnecting")
			p.target.RequestReconnect()
		}
	}
}
