package manager

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/LJTian/ArxivHub/internal/arxiv"
	"github.com/LJTian/ArxivHub/internal/collector"
	"github.com/LJTian/ArxivHub/internal/trend"
)

const (
	SortHot    = "hot"
	SortNew    = "new"
	SortRising = "rising"
)

// Persister 是可选的持久化协作方（快照 + 归档），nil 表示关闭
type Persister interface {
	SaveSnapshot(ctx context.Context, historical, latest collector.Corpus, savedAt time.Time) error
	ArchivePapers(ctx context.Context, papers []arxiv.Paper) error
}

// PageItem 渲染层使用的单条论文视图
type PageItem struct {
	Rank        int      `json:"rank"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	AuthorCount int      `json:"authorCount"`
	Categories  []string `json:"categories"`
	Published   string   `json:"published"` // YYYY-MM-DD
	TimeAgo     string   `json:"timeAgo"`   // "N days ago" / "today"
}

// PageView 当前页的完整视图
type PageView struct {
	Papers     []PageItem `json:"papers"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	SortMethod string     `json:"sortMethod"`
	Total      int        `json:"total"`
}

// Manager 持有整份缓存状态：两个语料库、趋势聚合、排序结果与分页游标。
// 取代原型里的进程级单例，启动时构造一次并传引用给各 handler。
// 所有可变字段由单把互斥锁保护；语料库只做整体替换，不做原地修改。
type Manager struct {
	builder    *collector.Builder
	categories []string
	ttl        time.Duration
	pageSize   int
	store      Persister
	now        func() time.Time

	// refreshMu 串行化刷新本身，避免多个调用方同时打上游；
	// mu 只保护状态读写，网络请求期间不持有
	refreshMu sync.Mutex

	mu         sync.Mutex
	historical collector.Corpus
	latest     collector.Corpus
	keywords   []string
	activity   map[string]int
	sorted     []arxiv.Paper
	sortMethod string
	page       int
	totalPages int
	lastFetch  time.Time
}

func New(builder *collector.Builder, categories []string, ttl time.Duration, pageSize int, store Persister) *Manager {
	if pageSize <= 0 {
		pageSize = 30
	}
	return &Manager{
		builder:    builder,
		categories: categories,
		ttl:        ttl,
		pageSize:   pageSize,
		store:      store,
		now:        time.Now,
		sortMethod: SortHot,
		page:       1,
		totalPages: 1,
	}
}

// needsRefresh 缓存闸门：从未刷新过，或距上次刷新已满 TTL（含边界）时返回 true
func (m *Manager) needsRefresh(now time.Time) bool {
	if m.lastFetch.IsZero() {
		return true
	}
	return now.Sub(m.lastFetch) >= m.ttl
}

// RefreshIfStale 懒加载刷新入口：缓存仍新鲜时直接返回，原状态继续服务。
// 过期则并发重建两个语料库并阻塞到完成；两边都为空时本轮刷新失败，
// 旧状态原样保留，下一次过期触发是唯一的重试路径。
func (m *Manager) RefreshIfStale(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	stale := m.needsRefresh(m.now())
	m.mu.Unlock()
	if !stale {
		return nil
	}

	log.Printf("manager: cache stale, fetching %d categories...", len(m.categories))
	start := m.now()

	historical, latest, err := m.builder.FetchAll(ctx, m.categories)
	if err != nil {
		return fmt.Errorf("manager: refresh: %w", err)
	}

	now := m.now()
	m.mu.Lock()
	m.applyCorporaLocked(historical, latest, now)
	kwCount := len(m.keywords)
	m.mu.Unlock()

	log.Printf("manager: refresh done in %s: historical=%d latest=%d keywords=%d",
		now.Sub(start).Round(time.Second), len(historical), len(latest), kwCount)

	m.persist(ctx, historical, latest, now)
	return nil
}

// SeedFromSnapshot 用持久化快照预热缓存；快照超过 TTL 视为过期，直接忽略
func (m *Manager) SeedFromSnapshot(historical, latest collector.Corpus, savedAt time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if savedAt.IsZero() || m.now().Sub(savedAt) >= m.ttl {
		return false
	}
	if len(historical) == 0 && len(latest) == 0 {
		return false
	}
	m.applyCorporaLocked(historical, latest, savedAt)
	log.Printf("manager: seeded from snapshot: historical=%d latest=%d savedAt=%s",
		len(historical), len(latest), savedAt.Format(time.RFC3339))
	return true
}

// applyCorporaLocked 原子替换语料库并重建全部派生聚合；调用方需持有 m.mu
func (m *Manager) applyCorporaLocked(historical, latest collector.Corpus, fetchedAt time.Time) {
	m.historical = historical
	m.latest = latest
	m.keywords = trend.TrendingKeywords(historical)
	m.activity = trend.AuthorActivity(historical)
	m.lastFetch = fetchedAt
	m.page = 1
	m.resortLocked()
}

// SetSortMethod 切换排序模式并回到第 1 页；未知模式回退到 hot
func (m *Manager) SetSortMethod(method string) PageView {
	switch method {
	case SortHot, SortNew, SortRising:
	default:
		method = SortHot
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortMethod = method
	m.page = 1
	m.resortLocked()
	return m.renderLocked()
}

// resortLocked 按当前模式重排语料库；调用方需持有 m.mu。
// hot/rising 基于历史语料库打分，new 直接按最新语料库的发布时间倒序。
// 先按论文 ID 升序铺开再做稳定排序，等分时以 ID 升序为并列次序，保证可复现。
func (m *Manager) resortLocked() {
	var source collector.Corpus
	if m.sortMethod == SortNew {
		source = m.latest
	} else {
		source = m.historical
	}

	papers := make([]arxiv.Paper, 0, len(source))
	for _, id := range sortedIDs(source) {
		papers = append(papers, source[id])
	}

	now := m.now()
	switch m.sortMethod {
	case SortNew:
		sort.SliceStable(papers, func(i, j int) bool {
			return papers[i].Published.After(papers[j].Published)
		})
	case SortRising:
		scores := make([]float64, len(papers))
		for i, p := range papers {
			scores[i] = trend.RisingScore(p, m.keywords, now)
		}
		sortByScore(papers, scores)
	default:
		scores := make([]float64, len(papers))
		for i, p := range papers {
			scores[i] = trend.HotScore(p, m.keywords, m.activity, now)
		}
		sortByScore(papers, scores)
	}

	m.sorted = papers
	m.totalPages = totalPages(len(papers), m.pageSize)
	if m.page > m.totalPages {
		m.page = m.totalPages
	}
	if m.page < 1 {
		m.page = 1
	}
}

// NextPage 翻到下一页；已在最后一页时原样返回当前页
func (m *Manager) NextPage() PageView {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page < m.totalPages {
		m.page++
	}
	return m.renderLocked()
}

// PrevPage 翻到上一页；已在第一页时原样返回当前页
func (m *Manager) PrevPage() PageView {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page > 1 {
		m.page--
	}
	return m.renderLocked()
}

// RenderPage 渲染当前页；空语料库渲染为空列表，不算错误
func (m *Manager) RenderPage() PageView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renderLocked()
}

func (m *Manager) renderLocked() PageView {
	start := (m.page - 1) * m.pageSize
	end := start + m.pageSize
	if start > len(m.sorted) {
		start = len(m.sorted)
	}
	if end > len(m.sorted) {
		end = len(m.sorted)
	}

	now := m.now()
	items := make([]PageItem, 0, end-start)
	for i, p := range m.sorted[start:end] {
		items = append(items, PageItem{
			Rank:        start + i + 1,
			Title:       p.Title,
			URL:         p.URL,
			AuthorCount: len(p.Authors),
			Categories:  p.Categories,
			Published:   p.Published.Format("2006-01-02"),
			TimeAgo:     timeAgo(p.Published, now),
		})
	}

	return PageView{
		Papers:     items,
		Page:       m.page,
		TotalPages: m.totalPages,
		SortMethod: m.sortMethod,
		Total:      len(m.sorted),
	}
}

// persist 刷新成功后的写穿行为；失败只记日志，不影响刷新结果
func (m *Manager) persist(ctx context.Context, historical, latest collector.Corpus, savedAt time.Time) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSnapshot(ctx, historical, latest, savedAt); err != nil {
		log.Printf("manager: save snapshot error: %v", err)
	}

	union := make(map[string]arxiv.Paper, len(historical)+len(latest))
	for id, p := range historical {
		union[id] = p
	}
	for id, p := range latest {
		union[id] = p
	}
	papers := make([]arxiv.Paper, 0, len(union))
	for _, id := range sortedIDs(union) {
		papers = append(papers, union[id])
	}
	if err := m.store.ArchivePapers(ctx, papers); err != nil {
		log.Printf("manager: archive papers error: %v", err)
	}
}

func totalPages(count, pageSize int) int {
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// timeAgo 人类可读的相对时间："N days ago"，当天为 "today"
func timeAgo(published, now time.Time) string {
	days := int(now.Sub(published).Hours() / 24)
	if days <= 0 {
		return "today"
	}
	return fmt.Sprintf("%d days ago", days)
}

func sortedIDs(corpus map[string]arxiv.Paper) []string {
	ids := make([]string, 0, len(corpus))
	for id := range corpus {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortByScore 按分数倒序稳定排序，papers 与 scores 同步移动
func sortByScore(papers []arxiv.Paper, scores []float64) {
	idx := make([]int, len(papers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	out := make([]arxiv.Paper, len(papers))
	for i, j := range idx {
		out[i] = papers[j]
	}
	copy(papers, out)
}
