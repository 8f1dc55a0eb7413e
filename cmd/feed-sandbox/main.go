// feed-sandbox broadcasts a synthetic match to radarterm clients over WebSocket and,
// optionally, the length-framed TCP transport
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	vmsgpack "github.com/vmihailenco/msgpack/v5"

	"github.com/lixenwraith/radarterm/network"
)

var upgrader = websocket.Upgrader{
	// Local tool; any origin may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait   = 2 * time.Second
	pingPeriod  = 20 * time.Second
	clientQueue = 16
)

// subscriber is one connected client with its own bounded outbox
type subscriber struct {
	id   string
	out  chan []byte
	done chan struct{}
}

// Hub fans frames out to subscribers; slow subscribers lose frames rather than stall the feed
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

func (h *Hub) subscribe() *subscriber {
	s := &subscriber{id: uuid.NewString(), out: make(chan []byte, clientQueue), done: make(chan struct{})}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.done)
	}
	h.mu.Unlock()
}

// Broadcast queues data for every subscriber, dropping it for those whose outbox is full
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.out <- data:
		default:
		}
	}
}

// Len reports the subscriber count
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) serveWS(world *World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[ws] upgrade: %v", err)
			return
		}
		defer conn.Close()

		s := h.subscribe()
		defer h.unsubscribe(s)
		log.Printf("[ws] client %s connected from %s", s.id, r.RemoteAddr)

		greeting, err := vmsgpack.Marshal(world.Greeting(s.id))
		if err != nil {
			log.Printf("[ws] greeting: %v", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, greeting); err != nil {
			return
		}

		// Reader only watches for close; clients send nothing the sandbox acts on
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.unsubscribe(s)
					return
				}
			}
		}()

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()
		for {
			select {
			case data := <-s.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
					log.Printf("[ws] client %s write: %v", s.id, err)
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-s.done:
				log.Printf("[ws] client %s disconnected", s.id)
				return
			}
		}
	}
}

// serveTCP writes snapshot-kind messages with an advancing sequence number to one connection
func (h *Hub) serveTCP(conn net.Conn, world *World) {
	defer conn.Close()
	s := h.subscribe()
	defer h.unsubscribe(s)
	log.Printf("[tcp] client %s connected from %s", s.id, conn.RemoteAddr())

	var seq uint32
	send := func(kind network.Kind, payload []byte) error {
		seq++
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return network.NewMessage(kind, seq, payload).Encode(conn)
	}

	greeting, err := vmsgpack.Marshal(world.Greeting(s.id))
	if err == nil {
		err = send(network.KindSnapshot, greeting)
	}
	if err != nil {
		log.Printf("[tcp] greeting: %v", err)
		return
	}

	for {
		select {
		case data := <-s.out:
			if err := send(network.KindSnapshot, data); err != nil {
				log.Printf("[tcp] client %s write: %v", s.id, err)
				return
			}
		case <-s.done:
			return
		}
	}
}

// Run steps the world at the given rate until ctx ends
func (h *Hub) Run(ctx context.Context, world *World, rate time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			data, err := encode(world.Step(now))
			if err != nil {
				log.Printf("[feed] encode: %v", err)
				continue
			}
			h.Broadcast(data)
		}
	}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8765", "WebSocket listen address (endpoint /ws)")
	tcpAddr := flag.String("tcp", "", "optional framed TCP listen address")
	mapName := flag.String("map", "de_dust2", "map name to announce")
	extent := flag.Float64("extent", 2500, "half-width of the square world in game units")
	hz := flag.Int("hz", 10, "frames per second")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "simulation seed")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if *hz <= 0 {
		log.Fatalf("[main] -hz must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub()
	world := NewWorld(*mapName, *extent, *seed)
	go hub.Run(ctx, world, time.Second/time.Duration(*hz))

	if *tcpAddr != "" {
		ln, err := net.Listen("tcp", *tcpAddr)
		if err != nil {
			log.Fatalf("[main] tcp listen: %v", err)
		}
		context.AfterFunc(ctx, func() { ln.Close() })
		log.Printf("[main] tcp feed on %s", ln.Addr())
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				go hub.serveTCP(conn, world)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.serveWS(world))
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[main] websocket feed on ws://%s/ws at %d Hz, map %s", *addr, *hz, *mapName)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[main] %v", err)
	}
}
