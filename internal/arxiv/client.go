package arxiv

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	// arXiv 官方批量接口，响应为 Atom XML
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	clientTimeout = 30 * time.Second
	userAgent     = "ArxivHubBot/1.0"
)

// Client 封装 arXiv 查询接口；BaseURL 留空时使用官方地址（测试时指向本地 httptest）
type Client struct {
	BaseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL}
}

// Search 拉取某个一级分类下最近提交的论文，按提交时间倒序，最多 maxResults 条。
// category 是一级前缀（如 cs），查询时展开为 cat:cs.* 通配。
func (c *Client) Search(category string, maxResults int) ([]Paper, error) {
	q := url.Values{}
	q.Set("search_query", fmt.Sprintf("cat:%s.*", category))
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	target := c.BaseURL + "?" + q.Encode()

	col := colly.NewCollector(colly.UserAgent(userAgent))
	col.SetRequestTimeout(clientTimeout)

	papers := make([]Paper, 0, maxResults)

	// 上游为 Atom feed，这里按 entry 逐条解析
	col.OnXML("//feed/entry", func(e *colly.XMLElement) {
		id := strings.TrimSpace(e.ChildText("id"))
		if id == "" {
			return
		}

		published, err := time.Parse(time.RFC3339, strings.TrimSpace(e.ChildText("published")))
		if err != nil {
			// 时间坏掉的条目没法参与打分，直接丢弃
			log.Printf("arxiv: skip entry %s: bad published time: %v", id, err)
			return
		}

		pdfURL := e.ChildAttr("link[@title='pdf']", "href")
		if pdfURL == "" {
			pdfURL = id
		}

		papers = append(papers, Paper{
			ID:         id,
			Title:      normalizeSpace(e.ChildText("title")),
			Abstract:   normalizeSpace(e.ChildText("summary")),
			Authors:    e.ChildTexts("author/name"),
			Published:  published.UTC(),
			Categories: e.ChildAttrs("category", "term"),
			URL:        pdfURL,
		})
	})

	if err := col.Visit(target); err != nil {
		return nil, fmt.Errorf("arxiv: search cat:%s.*: %w", category, err)
	}

	return papers, nil
}

// normalizeSpace 压掉 Atom 里标题/摘要常见的换行和缩进
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
