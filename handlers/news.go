// handlers/news.go - town news feed, REST and websocket
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const defaultNewsCount = 20

// GetNews returns the most recent town news.
// GET /api/news?count=N
func GetNews(c *fiber.Ctx) error {
	count := defaultNewsCount
	if raw := c.Query("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			count = n
		}
	}

	items, err := newsService.Recent(count)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load news"})
	}
	return c.JSON(fiber.Map{"success": true, "news": items})
}

// NewsUpgrade gates /ws/news to real websocket upgrade requests.
func NewsUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// NewsSocket streams every published news item to the client until it
// disconnects.
var NewsSocket = websocket.New(func(conn *websocket.Conn) {
	feed, cancel := newsService.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case item, ok := <-feed:
			if !ok {
				return
			}
			if err := conn.WriteJSON(item); err != nil {
				return
			}
		case <-done:
			return
		}
	}
})
