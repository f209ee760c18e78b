// Package filetail follows registered log files line by line.
package filetail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/modoterra/logkeep/pkg/core"
)

// DefaultPollInterval is how often a followed file is checked for new data.
const DefaultPollInterval = 250 * time.Millisecond

// Provider tails log files by logical name.
type Provider struct {
	subs   map[string]*subscription
	mu     sync.Mutex
	poll   time.Duration
	logger *slog.Logger
}

type subscription struct {
	cancel context.CancelFunc
	ch     chan core.LogLine
}

// New creates a new file tail provider.
func New(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		subs:   make(map[string]*subscription),
		poll:   DefaultPollInterval,
		logger: logger,
	}
}

// SetPollInterval changes the poll interval for subscriptions started later.
func (p *Provider) SetPollInterval(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.poll = d
	}
}

// Subscribe starts following the file at path from its current end.
// Subscribing twice to the same name and path returns the same channel.
// The channel is closed when ctx is done or the subscription is removed.
func (p *Provider) Subscribe(ctx context.Context, name, path string) (<-chan core.LogLine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := name + ":" + path
	if sub, ok := p.subs[key]; ok {
		return sub.ch, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan core.LogLine, 100)
	sub := &subscription{cancel: cancel, ch: ch}
	p.subs[key] = sub

	go func() {
		defer f.Close()
		defer close(ch)
		defer p.remove(key, sub)
		p.follow(subCtx, f, name, ch, p.poll)
	}()

	p.logger.Info("tailing file", "path", path, "name", name)
	return ch, nil
}

// Unsubscribe stops following name at path.
func (p *Provider) Unsubscribe(name, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := name + ":" + path
	sub, ok := p.subs[key]
	if !ok {
		return nil
	}
	sub.cancel()
	delete(p.subs, key)
	return nil
}

// Close stops every subscription.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, sub := range p.subs {
		sub.cancel()
		delete(p.subs, key)
	}
}

func (p *Provider) remove(key string, sub *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[key] == sub {
		delete(p.subs, key)
	}
}

func (p *Provider) follow(ctx context.Context, f *os.File, name string, ch chan<- core.LogLine, poll time.Duration) {
	reader := bufio.NewReader(f)
	var partial strings.Builder

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		chunk, err := reader.ReadString('\n')
		partial.WriteString(chunk)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.logger.Warn("tail read failed", "path", f.Name(), "err", err)
				return
			}
			// No complete line yet: wait, then check whether the file
			// was truncated (e.g. trimmed) underneath us.
			select {
			case <-ctx.Done():
				return
			case <-time.After(poll):
			}
			info, serr := f.Stat()
			if serr != nil {
				continue
			}
			pos, perr := f.Seek(0, io.SeekCurrent)
			if perr != nil {
				continue
			}
			if info.Size() < pos-int64(reader.Buffered()) {
				f.Seek(0, io.SeekStart)
				reader.Reset(f)
				partial.Reset()
			}
			continue
		}

		line := strings.TrimRight(partial.String(), "\r\n")
		partial.Reset()
		if line == "" {
			continue
		}
		entry := core.LogLine{
			Name:     name,
			TsUnixMs: time.Now().UnixMilli(),
			Line:     line,
		}
		select {
		case ch <- entry:
		default:
		}
	}
}
