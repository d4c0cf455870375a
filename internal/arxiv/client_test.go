package arxiv

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Deep   Learning
      for Testing</title>
    <summary>  A study of
      test fixtures.  </summary>
    <published>2024-01-02T03:04:05Z</published>
    <author><name>Alice</name></author>
    <author><name>Bob</name></author>
    <category term="cs.LG"/>
    <category term="stat.ML"/>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.00001v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <title>No PDF Link</title>
    <summary>abstract</summary>
    <published>2024-01-01T00:00:00Z</published>
    <author><name>Carol</name></author>
    <category term="math.CO"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00003v1</id>
    <title>Broken Timestamp</title>
    <summary>should be dropped</summary>
    <published>not-a-time</published>
    <author><name>Dave</name></author>
  </entry>
</feed>`

func TestSearchParsesAtomFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	papers, err := c.Search("cs", 100)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	// 坏时间戳的第三条应被丢弃
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}

	p := papers[0]
	if p.ID != "http://arxiv.org/abs/2401.00001v1" {
		t.Fatalf("unexpected id: %q", p.ID)
	}
	// 标题/摘要中的换行与缩进应被压成单个空格
	if p.Title != "Deep Learning for Testing" {
		t.Fatalf("unexpected title: %q", p.Title)
	}
	if p.Abstract != "A study of test fixtures." {
		t.Fatalf("unexpected abstract: %q", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Alice" || p.Authors[1] != "Bob" {
		t.Fatalf("unexpected authors: %v", p.Authors)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "cs.LG" {
		t.Fatalf("unexpected categories: %v", p.Categories)
	}
	if p.URL != "http://arxiv.org/pdf/2401.00001v1" {
		t.Fatalf("expected pdf url, got %q", p.URL)
	}
	if p.Published.Year() != 2024 || p.Published.Day() != 2 {
		t.Fatalf("unexpected published: %s", p.Published)
	}

	// 没有 pdf link 的条目回退到 abs 页
	if papers[1].URL != "http://arxiv.org/abs/2401.00002v1" {
		t.Fatalf("expected abs fallback url, got %q", papers[1].URL)
	}

	// 查询参数应包含通配分类与倒序提交时间
	for _, want := range []string{"cat%3Acs.%2A", "sortBy=submittedDate", "sortOrder=descending", "max_results=100"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Search("cs", 10); err == nil {
		t.Fatalf("expected error on upstream 500")
	}
}

func TestSearchTextLowercasesTitleAndAbstract(t *testing.T) {
	p := Paper{Title: "Quantum Widgets", Abstract: "A New APPROACH"}
	if got := p.SearchText(); got != "quantum widgets a new approach" {
		t.Fatalf("SearchText = %q", got)
	}
}
