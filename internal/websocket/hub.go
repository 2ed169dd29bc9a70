package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/metrics"
)

// DefaultChannel - канал Redis для пересылки событий ленты между инстансами
const DefaultChannel = "quiz:live:attempts"

const (
	broadcastBufferSize = 256
	publishTimeout      = 2 * time.Second
)

// Hub хранит подключенных клиентов ленты и рассылает им события.
// Все изменения набора клиентов выполняются в горутине Run.
type Hub struct {
	instanceID string
	channel    string
	provider   PubSubProvider

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	clientCount atomic.Int64
}

// NewHub создает хаб; provider == nil означает работу в пределах одного процесса
func NewHub(provider PubSubProvider, channel string) *Hub {
	if provider == nil {
		provider = &NoOpPubSub{}
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Hub{
		instanceID: uuid.NewString(),
		channel:    channel,
		provider:   provider,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

// Run обслуживает хаб до отмены ctx, после чего закрывает всех клиентов
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	relay, err := h.provider.Subscribe(ctx, h.channel)
	if err != nil {
		log.Printf("[LiveFeed] Cluster relay disabled: %v", err)
		relay = nil
	}

	log.Printf("[LiveFeed] Hub %s started", h.instanceID)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			log.Printf("[LiveFeed] Hub %s stopped", h.instanceID)
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.clientCount.Add(1)
			metrics.LiveClients.Inc()
			log.Printf("[LiveFeed] Client registered: account %s (conn %s)", client.AccountID, client.ConnectionID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
			}

		case message := <-h.broadcast:
			h.deliver(message)

		case data, ok := <-relay:
			if !ok {
				relay = nil
				continue
			}
			var msg ClusterMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("[LiveFeed] Failed to decode cluster message: %v", err)
				continue
			}
			// свои события уже доставлены локально
			if msg.InstanceID == h.instanceID {
				continue
			}
			h.deliver(msg.Payload)
		}
	}
}

// Register добавляет клиента; false, если хаб уже остановлен
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента, если хаб еще работает
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// NotifyAttempt рассылает событие attempt_recorded. Никогда не блокирует вызывающего.
func (h *Hub) NotifyAttempt(attempt *entity.Attempt) {
	if attempt == nil {
		return
	}
	payload := AttemptPayload{
		AttemptID:      attempt.ID,
		UserID:         attempt.AccountID,
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		Percentage:     attempt.Percentage,
		TimeTaken:      attempt.TimeTaken,
		CompletedAt:    attempt.CompletedAt,
	}
	message, err := NewEvent(EventAttemptRecorded, payload).Marshal()
	if err != nil {
		log.Printf("[LiveFeed] Failed to encode attempt %s: %v", attempt.ID, err)
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.done:
		return
	default:
		log.Printf("[LiveFeed] Broadcast buffer full, dropping attempt %s", attempt.ID)
	}

	if _, local := h.provider.(*NoOpPubSub); local {
		return
	}
	go h.publish(message)
}

func (h *Hub) publish(message []byte) {
	data, err := json.Marshal(ClusterMessage{InstanceID: h.instanceID, Payload: message})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.provider.Publish(ctx, h.channel, data); err != nil {
		log.Printf("[LiveFeed] Failed to publish to cluster: %v", err)
	}
}

// deliver отправляет сообщение всем клиентам; медленные клиенты отключаются
func (h *Hub) deliver(message []byte) {
	for client := range h.clients {
		if !client.enqueue(message) {
			log.Printf("[LiveFeed] Client buffer full, disconnecting account %s (conn %s)", client.AccountID, client.ConnectionID)
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	client.CloseSend()
	h.clientCount.Add(-1)
	metrics.LiveClients.Dec()
}
