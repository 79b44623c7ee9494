// models/news.go
package models

import "time"

// NewsItem is one entry in the town news feed. Writes are fire-and-forget;
// a failed insert never rolls back the action that produced it.
type NewsItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `gorm:"not null;type:text" json:"message"`
	Category  string    `gorm:"index;size:20" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func (NewsItem) TableName() string {
	return "news_items"
}
