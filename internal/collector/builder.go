package collector

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/LJTian/ArxivHub/internal/arxiv"
)

// ErrRefreshFailed 表示一轮刷新中两个语料库全部为空，本轮刷新整体失败
var ErrRefreshFailed = errors.New("collector: refresh failed, both corpora empty")

// Corpus 按论文 ID 去重后的集合；每轮刷新整体重建，不做增量合并
type Corpus map[string]arxiv.Paper

// Searcher 抽象上游查询接口，方便测试注入假实现
type Searcher interface {
	Search(category string, maxResults int) ([]arxiv.Paper, error)
}

// Builder 面向一组分类分区构建语料库。
// 同一次构建内各分区严格串行，分区之间强制间隔 delay 以遵守上游限速；
// 两个语料库（历史/最新）的构建彼此并发，各自持有独立的节流。
type Builder struct {
	client    Searcher
	maxPerCat int
	delay     time.Duration
}

func NewBuilder(client Searcher, maxPerCat int, delay time.Duration) *Builder {
	return &Builder{client: client, maxPerCat: maxPerCat, delay: delay}
}

// BuildCorpus 逐分区查询并按 ID 去重合并。
// 单个分区失败只记日志，按空结果处理，不中断整轮构建。
func (b *Builder) BuildCorpus(ctx context.Context, categories []string) Corpus {
	corpus := make(Corpus)
	for i, cat := range categories {
		if ctx.Err() != nil {
			log.Printf("collector: build canceled after %d/%d categories", i, len(categories))
			return corpus
		}

		papers, err := b.client.Search(cat, b.maxPerCat)
		if err != nil {
			log.Printf("collector: fetch category %s error: %v", cat, err)
		}
		for _, p := range papers {
			// 同一篇论文跨分区重复出现时后写覆盖；论文不可变，覆盖不改变内容
			corpus[p.ID] = p
		}

		if i < len(categories)-1 {
			if err := sleepCtx(ctx, b.delay); err != nil {
				log.Printf("collector: build canceled during throttle: %v", err)
				return corpus
			}
		}
	}
	return corpus
}

// FetchAll 并发构建历史与最新两个语料库，两个都构建完才返回。
// 两个语料库沿用完全相同的查询形态，区别只在各自的用途（趋势分析 vs "new" 排序）。
// 只有两个语料库都为空时才算失败；单边为空按降级结果接受。
func (b *Builder) FetchAll(ctx context.Context, categories []string) (historical, latest Corpus, err error) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		historical = b.BuildCorpus(ctx, categories)
	}()
	go func() {
		defer wg.Done()
		latest = b.BuildCorpus(ctx, categories)
	}()
	wg.Wait()

	if len(historical) == 0 && len(latest) == 0 {
		return nil, nil, ErrRefreshFailed
	}
	return historical, latest, nil
}

// sleepCtx 可被 ctx 打断的休眠，用于分区间节流
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
