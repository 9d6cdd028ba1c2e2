// Package server coordinates client registration, inbound event dispatch, and
// connection cleanup for the roomchat WebSocket system via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/roomchat/internal/chat"
)

// inboundEvent is a decoded frame paired with the client that sent it.
type inboundEvent struct {
	client *Client
	event  chat.Inbound
}

// Hub owns every live client connection and the chat router. All
// registrations, unregistrations and inbound events are processed one at a
// time on the Run goroutine, so each router handler completes, emissions
// included, before the next event is looked at.
type Hub struct {
	clients    map[chat.ConnID]*Client
	router     *chat.Router
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	failed     []*Client
	sendBuffer int
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with its own chat router. Router options such as a
// fixed clock are passed through.
func NewHub(sendBuffer int, opts ...chat.Option) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[chat.ConnID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		sendBuffer: sendBuffer,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.router = chat.NewRouter(h, opts...)
	return h
}

// Router returns the chat router driven by this hub.
func (h *Hub) Router() *chat.Router {
	return h.router
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// ClientCount reports the number of connected clients, joined or not.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Emit implements chat.Emitter. It only queues frames and never blocks.
// Router handlers may also be driven from outside the Run goroutine, so the
// client map, send channels and failed list are all touched under the hub
// mutex. Clients whose buffer is full are dropped on the next pass of the
// event loop.
func (h *Hub) Emit(recipients []chat.ConnID, ev chat.Outbound) {
	payload, err := ev.MarshalFrame()
	if err != nil {
		log.Printf("Dropping %s event: %v", ev.Event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, id := range recipients {
		client, ok := h.clients[id]
		if !ok || client.closed {
			continue
		}

		select {
		case client.send <- payload:
		default:
			h.failed = append(h.failed, client)
		}
	}
}

// Run starts the hub's main event loop. It returns once Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.removeClient(client, "disconnected")

		case ev := <-h.inbound:
			h.handleInbound(ev)
		}

		h.removeFailedClients()
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		log.Printf("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	log.Printf("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

	if client.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleInbound(ev inboundEvent) {
	h.mutex.RLock()
	_, live := h.clients[ev.client.id]
	h.mutex.RUnlock()
	if !live {
		return
	}

	h.router.Dispatch(ev.client.id, ev.event)
}

// removeClient drops the client and lets the router announce the departure.
// Unknown or already removed clients are ignored.
func (h *Hub) removeClient(client *Client, reason string) {
	if client == nil {
		return
	}

	h.mutex.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.id)
	client.closed = true
	close(client.send)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	log.Printf("Client %s from %s %s. Total clients: %d", client.id, client.addr, reason, clientCount)

	h.router.Disconnect(client.id)
}

// removeFailedClients drops clients whose send buffer overflowed. Announcing
// their departure can overflow further buffers, so it loops until none are left.
func (h *Hub) removeFailedClients() {
	for {
		h.mutex.Lock()
		failed := h.failed
		h.failed = nil
		h.mutex.Unlock()
		if len(failed) == 0 {
			return
		}

		for _, client := range failed {
			h.removeClient(client, "removed due to full send buffer")
		}
	}
}

// shutdownClients closes every connection and send channel.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
		client.closed = true
		close(client.send)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing client connection from %s: %v", client.addr, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown stops the event loop and waits for all client goroutines to finish,
// or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// submit hands a decoded frame to the event loop. It gives up once the hub
// has shut down.
func (h *Hub) submit(client *Client, in chat.Inbound) bool {
	select {
	case h.inbound <- inboundEvent{client: client, event: in}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave asks the event loop to remove client. It gives up once the hub has
// shut down.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}
