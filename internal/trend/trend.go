package trend

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/LJTian/ArxivHub/internal/collector"
)

const (
	// 热门关键词榜单长度
	topKeywords = 50
	// 参与词频统计的最小词长（>4 个字符，按 rune 计）
	minKeywordLen = 5
)

// TrendingKeywords 从历史语料库中统计热门关键词：
// 标题+摘要小写化后按空白切词，统计长度超过 4 的词的出现次数，取频次最高的前 50 个。
// 语料库按论文 ID 升序扫描，频次相同的词按首次出现的先后定序，保证结果可复现。
func TrendingKeywords(corpus collector.Corpus) []string {
	counts := make(map[string]int)
	order := make([]string, 0, 256) // 词的首次出现顺序

	for _, id := range sortedIDs(corpus) {
		for _, word := range strings.Fields(corpus[id].SearchText()) {
			if utf8.RuneCountInString(word) < minKeywordLen {
				continue
			}
			if _, seen := counts[word]; !seen {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topKeywords {
		order = order[:topKeywords]
	}
	return order
}

// AuthorActivity 统计每位作者在历史语料库中的发文数。
// 作者名做精确匹配，不做任何归一化；每轮刷新整体重建。
func AuthorActivity(corpus collector.Corpus) map[string]int {
	counts := make(map[string]int)
	for _, p := range corpus {
		for _, author := range p.Authors {
			counts[author]++
		}
	}
	return counts
}

func sortedIDs(corpus collector.Corpus) []string {
	ids := make([]string, 0, len(corpus))
	for id := range corpus {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
