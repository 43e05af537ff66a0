package l1

import (
	"context"
	"fmt"
	"sync"
)

// MockChain is an in-memory Adapter: Submit immediately "confirms" the
// submitted bytes and fans them out to every active Subscribe
// channel, for exercising the listener/miner wiring without a real L1
// connection.
type MockChain struct {
	mu      sync.Mutex
	nextTx  uint64
	height  uint32
	subs    []chan ObservedBlock
	history []ObservedBlock
}

func NewMockChain() *MockChain {
	return &MockChain{}
}

func (m *MockChain) Submit(ctx context.Context, blockBytes []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTx++
	m.height++
	obs := ObservedBlock{Height: m.height, BlockBytes: append([]byte(nil), blockBytes...)}
	m.history = append(m.history, obs)
	for _, ch := range m.subs {
		ch := ch
		go func() { ch <- obs }()
	}
	return fmt.Sprintf("mock-tx-%d", m.nextTx), nil
}

func (m *MockChain) Subscribe(ctx context.Context, fromHeight uint32) (<-chan ObservedBlock, error) {
	ch := make(chan ObservedBlock, 16)

	m.mu.Lock()
	backlog := make([]ObservedBlock, 0, len(m.history))
	for _, obs := range m.history {
		if obs.Height >= fromHeight {
			backlog = append(backlog, obs)
		}
	}
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	go func() {
		for _, obs := range backlog {
			select {
			case ch <- obs:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, c := range m.subs {
			if c == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}
