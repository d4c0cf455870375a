package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LJTian/ArxivHub/internal/arxiv"
	"github.com/LJTian/ArxivHub/internal/collector"
)

const snapshotKey = "papers:snapshot"

// PaperRecord 论文归档表；每轮刷新写穿一次，已存在的按 ID 跳过
type PaperRecord struct {
	ID         string         `gorm:"primaryKey;size:128" json:"id"`
	Title      string         `gorm:"size:512" json:"title"`
	Abstract   string         `gorm:"type:text" json:"abstract"`
	Authors    datatypes.JSON `gorm:"type:jsonb" json:"authors"`
	Categories datatypes.JSON `gorm:"type:jsonb" json:"categories"`
	Published  time.Time      `gorm:"index" json:"published"`
	URL        string         `gorm:"size:1024" json:"url"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PaperRecord) TableName() string { return "papers" }

// Store 可选的持久化层：Redis 存语料库快照，Postgres 做论文归档。
// dsn / redisAddr 允许各自为空，对应能力关闭，核心流程纯内存运行。
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	ttl time.Duration
}

func NewStore(dsn, redisAddr string, ttl time.Duration) (*Store, error) {
	s := &Store{ttl: ttl}

	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		if err := db.AutoMigrate(&PaperRecord{}); err != nil {
			return nil, fmt.Errorf("storage: migrate: %w", err)
		}
		s.DB = db
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
		s.Redis = rdb
	}

	return s, nil
}

// snapshotBlob Redis 快照的存储格式：只存两个语料库和落盘时间
type snapshotBlob struct {
	SavedAt    time.Time        `json:"savedAt"`
	Historical collector.Corpus `json:"historical"`
	Latest     collector.Corpus `json:"latest"`
}

// SaveSnapshot 把两个语料库整体写入 Redis，键过期时间与缓存 TTL 一致
func (s *Store) SaveSnapshot(ctx context.Context, historical, latest collector.Corpus, savedAt time.Time) error {
	if s.Redis == nil {
		return nil
	}
	bs, err := marshalSnapshot(historical, latest, savedAt)
	if err != nil {
		return fmt.Errorf("storage: marshal snapshot: %w", err)
	}
	if err := s.Redis.Set(ctx, snapshotKey, bs, s.ttl).Err(); err != nil {
		return fmt.Errorf("storage: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot 读取快照；不存在时三个返回值都为零值且无错误。
// 是否仍然新鲜由调用方按同一 TTL 策略用 savedAt 再校验一次。
func (s *Store) LoadSnapshot(ctx context.Context) (historical, latest collector.Corpus, savedAt time.Time, err error) {
	if s.Redis == nil {
		return nil, nil, time.Time{}, nil
	}
	bs, err := s.Redis.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil, time.Time{}, nil
	}
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("storage: load snapshot: %w", err)
	}
	return unmarshalSnapshot(bs)
}

// ArchivePapers 归档一批论文；论文不可变，已存在的记录不再更新
func (s *Store) ArchivePapers(ctx context.Context, papers []arxiv.Paper) error {
	if s.DB == nil {
		return nil
	}
	for _, p := range papers {
		authors, err := json.Marshal(p.Authors)
		if err != nil {
			return fmt.Errorf("storage: marshal authors for %s: %w", p.ID, err)
		}
		categories, err := json.Marshal(p.Categories)
		if err != nil {
			return fmt.Errorf("storage: marshal categories for %s: %w", p.ID, err)
		}

		rec := &PaperRecord{
			ID:         p.ID,
			Title:      p.Title,
			Abstract:   p.Abstract,
			Authors:    datatypes.JSON(authors),
			Categories: datatypes.JSON(categories),
			Published:  p.Published,
			URL:        p.URL,
		}
		if err := s.DB.WithContext(ctx).Where("id = ?", p.ID).FirstOrCreate(rec).Error; err != nil {
			return fmt.Errorf("storage: archive %s: %w", p.ID, err)
		}
	}
	return nil
}

func marshalSnapshot(historical, latest collector.Corpus, savedAt time.Time) ([]byte, error) {
	return json.Marshal(snapshotBlob{
		SavedAt:    savedAt,
		Historical: historical,
		Latest:     latest,
	})
}

func unmarshalSnapshot(bs []byte) (collector.Corpus, collector.Corpus, time.Time, error) {
	var blob snapshotBlob
	if err := json.Unmarshal(bs, &blob); err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("storage: unmarshal snapshot: %w", err)
	}
	return blob.Historical, blob.Latest, blob.SavedAt, nil
}
