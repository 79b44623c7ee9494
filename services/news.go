// services/news.go - town news feed
package services

import (
	"log"
	"sync"
	"time"

	"github.com/binary-knight/usurper-reborn-sub009/models"

	"gorm.io/gorm"
)

// NewsPublisher is the fire-and-forget notification sink. A publish failure
// must never roll back the economic transaction that produced it.
type NewsPublisher interface {
	Publish(message, category string)
}

// NewsService persists news items and fans them out to websocket
// subscribers.
type NewsService struct {
	db *gorm.DB

	mu   sync.Mutex
	subs map[chan models.NewsItem]struct{}
}

func NewNewsService(db *gorm.DB) *NewsService {
	return &NewsService{
		db:   db,
		subs: make(map[chan models.NewsItem]struct{}),
	}
}

// Publish stores the item and notifies subscribers. Errors are logged and
// swallowed.
func (s *NewsService) Publish(message, category string) {
	item := models.NewsItem{
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	}
	if s.db != nil {
		if err := s.db.Create(&item).Error; err != nil {
			log.Printf("news: failed to persist %q: %v", message, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- item:
		default:
			// Slow subscriber; drop rather than block a game action.
		}
	}
}

// Recent returns the latest count news items, newest first.
func (s *NewsService) Recent(count int) ([]models.NewsItem, error) {
	var items []models.NewsItem
	if count <= 0 {
		count = 20
	}
	err := s.db.Order("created_at DESC").Limit(count).Find(&items).Error
	return items, err
}

// Subscribe registers a feed channel; the returned func unsubscribes it.
func (s *NewsService) Subscribe() (<-chan models.NewsItem, func()) {
	ch := make(chan models.NewsItem, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}
