// Package health проверяет живость хранилища для /api/health и gRPC CheckHealth.
package health

import (
	"context"
	"fmt"
	"time"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Pinger: минимальный контракт хранилища: один тривиальный запрос туда-обратно.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report: результат проверки. Всегда одна из двух форм:
// {ok, connected, timestamp} или {error, disconnected, reason}.
type Report struct {
	Status    string
	Connected bool
	Timestamp time.Time
	Reason    string
}

// OK сообщает, доступна ли база.
func (r Report) OK() bool {
	return r.Status == StatusOK
}

// Probe выполняет проверку с таймаутом.
type Probe struct {
	db      Pinger
	timeout time.Duration
	now     func() time.Time
}

// Option настраивает Probe.
type Option func(*Probe)

// WithTimeout задает предельное время проверки.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) {
		p.timeout = d
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(p *Probe) {
		p.now = now
	}
}

func NewProbe(db Pinger, opts ...Option) *Probe {
	p := &Probe{
		db:      db,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check никогда не паникует наружу: любая ошибка или паника превращается в Report с ошибкой.
func (p *Probe) Check(ctx context.Context) (report Report) {
	defer func() {
		if rec := recover(); rec != nil {
			report = p.failure(fmt.Errorf("health check panic: %v", rec))
		}
	}()

	if p.db == nil {
		return p.failure(fmt.Errorf("database is not configured"))
	}

	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.db.Ping(checkCtx); err != nil {
		return p.failure(err)
	}
	return Report{
		Status:    StatusOK,
		Connected: true,
		Timestamp: p.now(),
	}
}

func (p *Probe) failure(err error) Report {
	return Report{
		Status:    StatusError,
		Connected: false,
		Timestamp: p.now(),
		Reason:    err.Error(),
	}
}
