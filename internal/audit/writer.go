package audit

/*
Writer - асинхронная запись журнала действий в audit_logs.

- Log не блокирует обработчик запроса: событие кладется в буферизованный канал,
  при переполнении сбрасывается с ошибкой в лог (Load Shedding).
- Воркер копит события и пишет их пачкой по размеру или по таймеру.
- Stop закрывает канал и ждет, пока воркер вычитает остаток и сделает финальный flush.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Storage определяет, куда физически сохраняются события.
type Storage interface {
	WriteBatch(ctx context.Context, events []Event) error
}

// Auditor: то, что видят сервисы.
type Auditor interface {
	Log(event Event)
}

// Nop ничего не пишет. Используется, когда аудит выключен.
type Nop struct{}

func (Nop) Log(Event) {}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	// BufferFill необязателен
	BufferFill prometheus.Gauge
}

type Writer struct {
	ch       chan Event
	repo     Storage
	logger   *zap.Logger
	opts     Options
	wg       sync.WaitGroup
	isClosed atomic.Bool
	mu       sync.RWMutex // защищает отправку в канал от одновременного close
}

func NewWriter(repo Storage, logger *zap.Logger, opts Options) *Writer {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	return &Writer{
		ch:     make(chan Event, opts.BufferSize),
		repo:   repo,
		logger: logger.With(zap.String("mod", "audit")),
		opts:   opts,
	}
}

func (w *Writer) Start() {
	w.wg.Add(1)
	go w.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (w *Writer) Stop() {
	w.mu.Lock()
	if w.isClosed.Swap(true) {
		w.mu.Unlock()
		return
	}
	w.logger.Info("stopping audit writer: closing channel and flushing buffer...")
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("audit writer stopped gracefully")
}

func (w *Writer) Log(event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.isClosed.Load() {
		w.logger.Warn("audit event dropped: writer is stopping", zap.Int64("assessment_id", event.AssessmentID))
		return
	}

	select {
	case w.ch <- event:
		w.observeFill()
	default:
		w.logger.Error("audit_buffer_overflow",
			zap.Int64("assessment_id", event.AssessmentID),
			zap.String("action", event.Action),
		)
	}
}

func (w *Writer) observeFill() {
	if w.opts.BufferFill != nil {
		w.opts.BufferFill.Set(float64(len(w.ch)))
	}
}

func (w *Writer) worker() {
	defer w.wg.Done()

	batch := make([]Event, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст может быть уже закрыт
		if err := w.repo.WriteBatch(context.Background(), batch); err != nil {
			w.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		w.observeFill()
	}

	for {
		select {
		case event, ok := <-w.ch:
			if !ok {
				// канал закрыт в Stop: остаток уже вычитан
				flush()
				w.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
