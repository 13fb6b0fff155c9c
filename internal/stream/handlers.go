package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/sessions/:id", subscribe(hub, "sessions:"))
	r.Get("/ws/segments/:id", subscribe(hub, "segments:"))
}

func subscribe(hub *Hub, prefix string) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := hub.Register(prefix + c.Params("id"))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}

		// Closing Send via Unregister is what ends the writer, so it has
		// to happen before waiting on it.
		hub.Unregister(client)
		<-done
	})
}
