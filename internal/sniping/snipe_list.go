// internal/sniping/snipe_list.go
package sniping

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SnipeList ограничивает покупки заранее заданным набором токенов.
// Выключенный фильтр пропускает всё.
type SnipeList struct {
	enabled bool
	path    string

	mu      sync.RWMutex
	entries map[string]struct{}

	logger *zap.Logger
}

// NewSnipeList создаёт фильтр. При enabled список сразу загружается из path.
func NewSnipeList(enabled bool, path string, logger *zap.Logger) (*SnipeList, error) {
	l := &SnipeList{
		enabled: enabled,
		path:    path,
		entries: make(map[string]struct{}),
		logger:  logger.Named("snipe-list"),
	}
	if !enabled {
		return l, nil
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// ShouldBuy сообщает, разрешена ли покупка токена.
func (l *SnipeList) ShouldBuy(mint string) bool {
	if !l.enabled {
		return true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[mint]
	return ok
}

// Len возвращает число токенов в списке.
func (l *SnipeList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reload перечитывает файл и атомарно подменяет набор.
func (l *SnipeList) Reload() error {
	entries, err := LoadSnipeList(l.path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	changed := len(entries) != len(l.entries)
	l.entries = entries
	l.mu.Unlock()

	if changed {
		l.logger.Info("Loaded snipe list", zap.Int("count", len(entries)))
	}
	return nil
}

// Watch перечитывает список с заданным интервалом до отмены ctx.
func (l *SnipeList) Watch(ctx context.Context, interval time.Duration) error {
	if !l.enabled || interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Reload(); err != nil {
				l.logger.Warn("Failed to reload snipe list", zap.Error(err))
			}
		}
	}
}

// LoadSnipeList читает по одному идентификатору на строку, пустые строки пропускаются.
func LoadSnipeList(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snipe list: %w", err)
	}
	defer file.Close()

	entries := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snipe list: %w", err)
	}
	return entries, nil
}
