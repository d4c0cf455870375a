package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/ArxivHub/internal/api"
	"github.com/LJTian/ArxivHub/internal/arxiv"
	"github.com/LJTian/ArxivHub/internal/collector"
	"github.com/LJTian/ArxivHub/internal/config"
	"github.com/LJTian/ArxivHub/internal/manager"
	"github.com/LJTian/ArxivHub/internal/scheduler"
	"github.com/LJTian/ArxivHub/internal/storage"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	client := arxiv.NewClient(cfg.ArxivBaseURL)
	builder := collector.NewBuilder(client, cfg.MaxPerCat, cfg.FetchDelay)
	m := manager.New(builder, cfg.Categories, cfg.CacheTTL, cfg.PageSize, store)

	// 启动时尝试用快照预热，避免首个请求扛整轮抓取；快照过期则忽略
	if historical, latest, savedAt, err := store.LoadSnapshot(context.Background()); err != nil {
		log.Printf("warn: load snapshot failed: %v", err)
	} else if !savedAt.IsZero() {
		if !m.SeedFromSnapshot(historical, latest, savedAt) {
			log.Printf("snapshot too old, ignoring (savedAt=%s)", savedAt)
		}
	}

	// 可选的后台预热刷新；默认关闭，刷新完全由请求经缓存闸门懒触发
	if cfg.WarmCron != "" {
		s, err := scheduler.New(cfg.WarmCron, m)
		if err != nil {
			log.Fatalf("init scheduler failed: %v", err)
		}
		s.Start()
	}

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(m)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
