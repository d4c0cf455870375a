package main

import (
	"context"
	"log"

	"github.com/LJTian/ArxivHub/internal/arxiv"
	"github.com/LJTian/ArxivHub/internal/collector"
	"github.com/LJTian/ArxivHub/internal/config"
	"github.com/LJTian/ArxivHub/internal/manager"
	"github.com/LJTian/ArxivHub/internal/storage"
)

// 一个仅执行一次抓取的命令行入口：拉全量语料库并写入快照/归档后退出，
// 适合手动预热缓存或补数据
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	client := arxiv.NewClient(cfg.ArxivBaseURL)
	builder := collector.NewBuilder(client, cfg.MaxPerCat, cfg.FetchDelay)
	m := manager.New(builder, cfg.Categories, cfg.CacheTTL, cfg.PageSize, store)

	if err := m.RefreshIfStale(context.Background()); err != nil {
		log.Fatalf("collect failed: %v", err)
	}

	view := m.RenderPage()
	log.Printf("collect done: %d papers, %d pages", view.Total, view.TotalPages)
}
