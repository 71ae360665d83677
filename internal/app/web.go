// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/cart_computer/internal/config"
	"github.com/relabs-tech/cart_computer/internal/motion"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// webState caches the latest telemetry from the acquisition process
// and fans packet batches out to websocket clients.
type webState struct {
	mu         sync.RWMutex
	lastStatus motion.Status
	haveStatus bool
	// backlog for HTTP pollers; handed over wholesale on each
	// /api/packets request, mirroring the engine's drain semantics
	pending []motion.Packet

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]bool
}

// RunWeb serves the dashboard: a JSON polling API, a websocket live
// feed, and static files. It holds no reference into the engine's
// buffers; everything arrives as copies over MQTT.
func RunWeb() error {
	cfg := config.Get()

	state := &webState{wsClients: make(map[*websocket.Conn]bool)}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to packet batches and status
	pktToken := client.Subscribe(cfg.TopicPackets, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var batch []motion.Packet
		if err := json.Unmarshal(msg.Payload(), &batch); err != nil {
			log.Printf("web: packet batch unmarshal error: %v", err)
			return
		}

		state.mu.Lock()
		state.pending = append(state.pending, batch...)
		state.mu.Unlock()

		state.broadcast(msg.Payload())
	})
	pktToken.Wait()
	if pktToken.Error() != nil {
		return pktToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicPackets)

	stToken := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st motion.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("web: status unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.lastStatus = st
		state.haveStatus = true
		state.mu.Unlock()
	})
	stToken.Wait()
	if stToken.Error() != nil {
		return stToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicStatus)

	// 3) JSON API
	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		if !state.haveStatus {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.lastStatus); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/packets", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		batch := state.pending
		state.pending = nil
		state.mu.Unlock()

		if batch == nil {
			batch = []motion.Packet{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(batch); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/toggle", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := publishCommand(client, cfg, motion.Command{Op: motion.OpToggle}); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	http.HandleFunc("/api/smoothing", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			HalfWidth int `json:"half_width"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		cmd := motion.Command{Op: motion.OpSetSmoothing, Value: body.HalfWidth}
		if err := publishCommand(client, cfg, cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// 4) Websocket live feed
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		state.wsMu.Lock()
		state.wsClients[conn] = true
		state.wsMu.Unlock()
		log.Printf("web: websocket client connected (%s)", conn.RemoteAddr())

		// reader goroutine only to notice the close
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					state.dropClient(conn)
					return
				}
			}
		}()
	})

	// 5) Static dashboard files
	staticDir := cfg.WebStaticDir
	if staticDir == "" {
		staticDir = "web"
	}
	http.Handle("/", http.FileServer(http.Dir(staticDir)))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

func publishCommand(client mqtt.Client, cfg *config.Config, cmd motion.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	token := client.Publish(cfg.TopicCommand, 0, false, payload)
	token.Wait()
	return token.Error()
}

// broadcast sends a raw packet-batch payload to every websocket
// client, dropping clients whose writes fail.
func (s *webState) broadcast(payload []byte) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("web: websocket write error, dropping client: %v", err)
			conn.Close()
			delete(s.wsClients, conn)
		}
	}
}

func (s *webState) dropClient(conn *websocket.Conn) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	if s.wsClients[conn] {
		conn.Close()
		delete(s.wsClients, conn)
		log.Printf("web: websocket client disconnected (%s)", conn.RemoteAddr())
	}
}
