package arxiv

import (
	"strings"
	"time"
)

// Paper 统一的论文数据模型，抓取后不可变
type Paper struct {
	ID         string    `json:"id"` // arXiv entry id（abs 页 URL），作为去重键
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Authors    []string  `json:"authors"`
	Published  time.Time `json:"published"` // UTC
	Categories []string  `json:"categories"`
	URL        string    `json:"url"` // PDF 链接，缺失时回退 abs 页
}

// SearchText 返回小写化的 标题+摘要，打分与关键词统计都基于这段文本
func (p Paper) SearchText() string {
	return strings.ToLower(p.Title + " " + p.Abstract)
}
