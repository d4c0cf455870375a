package trend

import (
	"math"
	"strings"
	"time"

	"github.com/LJTian/ArxivHub/internal/arxiv"
)

// HotScore 热度分：作者活跃度 + 热门关键词命中数，再按论文年龄衰减。
// 分母的 +7 防止当天论文除数过小，1.5 次幂让老论文比线性衰减得更快。
func HotScore(p arxiv.Paper, keywords []string, activity map[string]int, now time.Time) float64 {
	authorScore := 0
	for _, author := range p.Authors {
		authorScore += activity[author]
	}

	keywordScore := 0
	text := p.SearchText()
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			keywordScore++
		}
	}

	return float64(authorScore+keywordScore) / math.Pow(float64(ageDays(p, now)+7), 1.5)
}

// RisingScore 新锐分：统计词汇中没进热门榜的部分（新颖度），除以年龄+1。
// 用词汇偏离既有热点的程度来近似"正在冒头的新方向"。
func RisingScore(p arxiv.Paper, keywords []string, now time.Time) float64 {
	trending := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		trending[kw] = struct{}{}
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(p.SearchText()) {
		words[w] = struct{}{}
	}

	novelty := 0
	for w := range words {
		if _, ok := trending[w]; !ok {
			novelty++
		}
	}

	return float64(novelty) / float64(ageDays(p, now)+1)
}

// ageDays 论文年龄（整天数），未来时间夹到 0
func ageDays(p arxiv.Paper, now time.Time) int {
	days := int(now.Sub(p.Published).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
