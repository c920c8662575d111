// internal/monitor/registry.go
package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// ErrMonitorActive возвращается при повторном запуске монитора для того же mint.
var ErrMonitorActive = errors.New("position monitor already active")

// Registry запускает не более одного монитора на mint.
type Registry struct {
	monitor *Monitor
	logger  *zap.Logger

	mu     sync.Mutex
	active map[solana.PublicKey]struct{}
	wg     sync.WaitGroup

	// onDone вызывается после завершения монитора, используется в тестах.
	onDone func(mint solana.PublicKey, outcome Outcome)
}

// NewRegistry создаёт реестр мониторов.
func NewRegistry(monitor *Monitor, logger *zap.Logger) *Registry {
	return &Registry{
		monitor: monitor,
		logger:  logger.Named("monitor-registry"),
		active:  make(map[solana.PublicKey]struct{}),
	}
}

// Spawn запускает монитор позиции в отдельной горутине.
func (r *Registry) Spawn(ctx context.Context, pos Position) error {
	r.mu.Lock()
	if _, ok := r.active[pos.Mint]; ok {
		r.mu.Unlock()
		return ErrMonitorActive
	}
	r.active[pos.Mint] = struct{}{}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		outcome := r.monitor.Run(ctx, pos)

		r.mu.Lock()
		delete(r.active, pos.Mint)
		r.mu.Unlock()

		r.logger.Debug("Position monitor finished",
			zap.String("mint", pos.Mint.String()),
			zap.String("outcome", string(outcome)))
		if r.onDone != nil {
			r.onDone(pos.Mint, outcome)
		}
	}()
	return nil
}

// Active сообщает, работает ли монитор для mint.
func (r *Registry) Active(mint solana.PublicKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[mint]
	return ok
}

// Len возвращает число активных мониторов.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Wait ожидает завершения всех мониторов.
func (r *Registry) Wait() {
	r.wg.Wait()
}
