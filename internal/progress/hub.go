package progress

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub fans provider upload progress out to WebSocket clients. Clients
// subscribe per video id; broadcasts for a video only reach its
// subscribers.
type Hub struct {
	clients    map[*Client]bool
	byVideo    map[string][]*Client // videoId -> subscribers
	register   chan *Client
	unregister chan *Client
	broadcast  chan *OutgoingMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byVideo:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *OutgoingMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToVideo(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	log.Info().
		Int("totalClients", len(h.clients)).
		Msg("[WS] Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	for videoID := range client.subscriptions {
		h.removeFromVideoSubscribers(client, videoID)
	}

	log.Info().
		Int("totalClients", len(h.clients)).
		Msg("[WS] Client unregistered")
}

func (h *Hub) removeFromVideoSubscribers(client *Client, videoID string) {
	videoClients := h.byVideo[videoID]
	for i, c := range videoClients {
		if c == client {
			h.byVideo[videoID] = append(videoClients[:i], videoClients[i+1:]...)
			break
		}
	}
	if len(h.byVideo[videoID]) == 0 {
		delete(h.byVideo, videoID)
	}
}

func (h *Hub) Subscribe(client *Client, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.byVideo[videoID] {
		if c == client {
			return
		}
	}

	h.byVideo[videoID] = append(h.byVideo[videoID], client)

	log.Debug().
		Str("videoId", videoID).
		Int("subscribers", len(h.byVideo[videoID])).
		Msg("[WS] Video subscription added")
}

func (h *Hub) Unsubscribe(client *Client, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromVideoSubscribers(client, videoID)

	log.Debug().
		Str("videoId", videoID).
		Int("subscribers", len(h.byVideo[videoID])).
		Msg("[WS] Video subscription removed")
}

func (h *Hub) broadcastToVideo(msg *OutgoingMessage) {
	h.mu.RLock()
	clients := make([]*Client, len(h.byVideo[msg.VideoID]))
	copy(clients, h.byVideo[msg.VideoID])
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	for _, client := range clients {
		select {
		case client.send <- msg:
		default:
			// Client buffer full, skip this message
			log.Warn().
				Str("videoId", msg.VideoID).
				Msg("[WS] Client send buffer full, dropping message")
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// UploadProgress implements the notifier side used by the video endpoints.
func (h *Hub) UploadProgress(videoID string, percent int) {
	h.broadcast <- &OutgoingMessage{
		Type:    MessageTypeProgress,
		VideoID: videoID,
		Percent: percent,
	}
}

func (h *Hub) UploadResult(videoID string, result []byte, err error) {
	msg := &OutgoingMessage{
		Type:    MessageTypeResult,
		VideoID: videoID,
		Result:  result,
	}
	if err != nil {
		msg.Error = err.Error()
	}
	h.broadcast <- msg
}

func (h *Hub) GetStats() (totalClients, totalSubscriptions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	totalClients = len(h.clients)
	for _, clients := range h.byVideo {
		totalSubscriptions += len(clients)
	}
	return
}
