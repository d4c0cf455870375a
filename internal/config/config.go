package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// 默认的 8 个 arXiv 一级分类前缀，查询时展开为 cat:<prefix>.*
var defaultCategories = []string{
	"physics", // 物理（含 astro-ph / cond-mat 等子类）
	"math",
	"cs",
	"q-bio",
	"q-fin",
	"stat",
	"eess",
	"econ",
}

type Config struct {
	AppPort string

	BasicAuthUser string
	BasicAuthPass string

	// 可选的持久化：为空则对应能力关闭
	PostgresDSN string
	RedisAddr   string

	ArxivBaseURL string
	Categories   []string

	CacheTTL   time.Duration
	PageSize   int
	MaxPerCat  int
	FetchDelay time.Duration

	// 可选的后台预热刷新；为空则只靠请求触发的懒加载刷新
	WarmCron string
}

func Load() *Config {
	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		ArxivBaseURL:  getEnv("ARXIV_BASE_URL", "http://export.arxiv.org/api/query"),
		Categories:    getEnvList("ARXIV_CATEGORIES", defaultCategories),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		PageSize:      getEnvInt("PAGE_SIZE", 30),
		MaxPerCat:     getEnvInt("MAX_RESULTS_PER_CATEGORY", 100),
		FetchDelay:    time.Duration(getEnvInt("FETCH_DELAY_MS", 1250)) * time.Millisecond,
		WarmCron:      getEnv("WARM_CRON", ""),
	}

	log.Printf("config loaded: port=%s categories=%d ttl=%s pageSize=%d",
		cfg.AppPort, len(cfg.Categories), cfg.CacheTTL, cfg.PageSize)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt 解析失败时直接回退默认值，不让启动因为一个坏的环境变量失败
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

// getEnvList 解析逗号分隔列表，空白项忽略
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
