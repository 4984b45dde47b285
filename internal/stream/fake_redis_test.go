package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// fakeRedis records stream writes, acks, claims and trims; other commands
// are not implemented
type fakeRedis struct {
	redis.Cmdable
	mu      sync.Mutex
	added   map[string][]map[string]interface{}
	acked   []string
	addErr  error
	counter int

	// pages returned by successive XAutoClaim calls
	claimPages  [][]redis.XMessage
	claimStarts []string
	trimmedTo   string
	trimCount   int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{added: map[string][]map[string]interface{}{}}
}

func (f *fakeRedis) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return redis.NewStringResult("", f.addErr)
	}
	values := a.Values.(map[string]interface{})
	f.added[a.Stream] = append(f.added[a.Stream], values)
	f.counter++
	return redis.NewStringResult(fmt.Sprintf("%d-0", f.counter), nil)
}

func (f *fakeRedis) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeRedis) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimStarts = append(f.claimStarts, a.Start)
	cmd := redis.NewXAutoClaimCmd(ctx)
	if len(f.claimPages) == 0 {
		cmd.SetVal(nil, "0-0")
		return cmd
	}
	page := f.claimPages[0]
	f.claimPages = f.claimPages[1:]
	next := "0-0"
	if len(f.claimPages) > 0 {
		next = page[len(page)-1].ID
	}
	cmd.SetVal(page, next)
	return cmd
}

func (f *fakeRedis) XTrimMinID(ctx context.Context, key, minID string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trimmedTo = minID
	return redis.NewIntResult(f.trimCount, nil)
}
