package l1

import (
	"context"
	"testing"
	"time"
)

func TestMockChainSubmitDeliversToSubscriber(t *testing.T) {
	chain := NewMockChain()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := chain.Subscribe(ctx, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := chain.Submit(ctx, []byte("block-1")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case obs := <-ch:
		if obs.Height != 1 || string(obs.BlockBytes) != "block-1" {
			t.Fatalf("unexpected observed block: %+v", obs)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for observed block")
	}
}

func TestMockChainSubscribeReplaysBacklog(t *testing.T) {
	chain := NewMockChain()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := chain.Submit(ctx, []byte("early")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ch, err := chain.Subscribe(ctx, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case obs := <-ch:
		if string(obs.BlockBytes) != "early" {
			t.Fatalf("unexpected backlog block: %+v", obs)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for backlog replay")
	}
}
