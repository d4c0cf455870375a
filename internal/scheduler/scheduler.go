package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/ArxivHub/internal/manager"
)

// Scheduler 可选的后台预热：按 cron 周期触发一次缓存闸门检查，
// 让 TTL 到期后的刷新尽量发生在后台，而不是落在某个用户请求上。
// 刷新本身仍然走同一个闸门，缓存新鲜时这里什么都不做。
type Scheduler struct {
	cron    *cron.Cron
	manager *manager.Manager
}

func New(spec string, m *manager.Manager) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, manager: m}

	if _, err := c.AddFunc(spec, s.warmOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) warmOnce() {
	if err := s.manager.RefreshIfStale(context.Background()); err != nil {
		log.Printf("scheduler: warm refresh error: %v", err)
	}
}
