package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LJTian/ArxivHub/internal/arxiv"
)

// fakeSearcher 按分类返回预置结果，failCats 中的分类返回错误。
// 两个语料库并发构建时会被并发调用，所以 calls 记录要加锁
type fakeSearcher struct {
	mu       sync.Mutex
	byCat    map[string][]arxiv.Paper
	failCats map[string]bool
	calls    []string
}

func (f *fakeSearcher) Search(category string, maxResults int) ([]arxiv.Paper, error) {
	f.mu.Lock()
	f.calls = append(f.calls, category)
	f.mu.Unlock()
	if f.failCats[category] {
		return nil, errors.New("upstream boom")
	}
	return f.byCat[category], nil
}

func paper(id string) arxiv.Paper {
	return arxiv.Paper{ID: id, Title: id, Published: time.Now().UTC()}
}

func TestBuildCorpusDeduplicatesAcrossCategories(t *testing.T) {
	fs := &fakeSearcher{byCat: map[string][]arxiv.Paper{
		"cs":   {paper("a"), paper("b")},
		"stat": {paper("b"), paper("c")}, // b 在两个分区重复出现
	}}
	b := NewBuilder(fs, 100, 0)

	corpus := b.BuildCorpus(context.Background(), []string{"cs", "stat"})
	if len(corpus) != 3 {
		t.Fatalf("corpus size = %d, want 3", len(corpus))
	}
	for _, id := range []string{"a", "b", "c"} {
		if _, ok := corpus[id]; !ok {
			t.Fatalf("corpus missing %q", id)
		}
	}
}

func TestBuildCorpusSwallowsPartitionFailure(t *testing.T) {
	fs := &fakeSearcher{
		byCat:    map[string][]arxiv.Paper{"math": {paper("m")}},
		failCats: map[string]bool{"cs": true},
	}
	b := NewBuilder(fs, 100, 0)

	corpus := b.BuildCorpus(context.Background(), []string{"cs", "math"})
	// cs 失败按空结果处理，math 正常入库
	if len(corpus) != 1 {
		t.Fatalf("corpus size = %d, want 1", len(corpus))
	}
	if len(fs.calls) != 2 {
		t.Fatalf("expected both categories queried, got %v", fs.calls)
	}
}

func TestFetchAllFailsOnlyWhenBothEmpty(t *testing.T) {
	empty := &fakeSearcher{failCats: map[string]bool{"cs": true}}
	b := NewBuilder(empty, 100, 0)
	if _, _, err := b.FetchAll(context.Background(), []string{"cs"}); !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}

	// 只要有一边非空就按降级结果接受
	some := &fakeSearcher{byCat: map[string][]arxiv.Paper{"cs": {paper("a")}}}
	b = NewBuilder(some, 100, 0)
	historical, latest, err := b.FetchAll(context.Background(), []string{"cs"})
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(historical) != 1 || len(latest) != 1 {
		t.Fatalf("corpora sizes = %d/%d, want 1/1", len(historical), len(latest))
	}
}

func TestBuildCorpusHonorsCancellation(t *testing.T) {
	fs := &fakeSearcher{byCat: map[string][]arxiv.Paper{"cs": {paper("a")}}}
	b := NewBuilder(fs, 100, time.Hour) // 节流拉满，靠取消提前退出

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Corpus, 1)
	go func() { done <- b.BuildCorpus(ctx, []string{"cs", "math"}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case corpus := <-done:
		// 取消前完成的分区结果应保留
		if len(corpus) != 1 {
			t.Fatalf("partial corpus size = %d, want 1", len(corpus))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("BuildCorpus did not return after cancellation")
	}
}
