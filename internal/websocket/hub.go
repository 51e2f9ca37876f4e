package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"coursetaker-backend/internal/middleware"
	"coursetaker-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub relays course change events to their owner's open sessions, so a
// dashboard left open in another tab updates without polling. Events travel
// through redis pub/sub, which keeps multiple server instances in sync.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	cancelFuncs map[uuid.UUID]context.CancelFunc
	redisClient *redis.Client
	jwt         *middleware.JWTAuth
}

func NewHub(redisClient *redis.Client, jwt *middleware.JWTAuth) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		jwt:         jwt,
	}
}

func channelFor(userID uuid.UUID) string {
	return "course-events:" + userID.String()
}

// PublishCourseEvent fans one course change out to the owner's sessions.
// Best-effort: a publish failure is logged, the HTTP request that caused it
// has already succeeded.
func (h *Hub) PublishCourseEvent(ctx context.Context, eventType string, courseID, userID uuid.UUID) {
	payload, err := json.Marshal(models.CourseEvent{
		Type:     eventType,
		CourseID: courseID,
		UserID:   userID,
	})
	if err != nil {
		return
	}
	if err := h.redisClient.Publish(ctx, channelFor(userID), payload).Err(); err != nil {
		log.Printf("failed to publish %s for course %s: %v", eventType, courseID, err)
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwt.VerifyToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.addConnection(userID, conn)
	go h.readLoop(userID, conn)
}

func (h *Hub) addConnection(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], conn)

	// First session for this user: start relaying their channel.
	if len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.subscribe(ctx, userID)
	}
}

func (h *Hub) removeConnection(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[userID]
	for i, c := range conns {
		if c == conn {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}
}

func (h *Hub) subscribe(ctx context.Context, userID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, channelFor(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, len(h.connections[userID]))
	copy(conns, h.connections[userID])
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			h.removeConnection(userID, conn)
		}
	}
}

func (h *Hub) readLoop(userID uuid.UUID, conn *websocket.Conn) {
	defer func() {
		conn.Close()
		h.removeConnection(userID, conn)
	}()

	// Clients never send anything meaningful; the read loop exists to
	// notice the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
