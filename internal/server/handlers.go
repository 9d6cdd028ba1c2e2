// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, roster lookups, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// WebSocketHandler upgrades GET requests to WebSocket and registers the new
// client with the hub, which launches its pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.cfg.MaxMessageSize)

	select {
	case s.hub.register <- client:
	case <-s.hub.ctx.Done():
		log.Printf("Rejecting connection from %s: hub is shut down", r.RemoteAddr)
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing rejected connection: %v", err)
		}
	}
}

// HealthHandler reports that the server is up.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomchat server is running! Connected clients: %d", s.hub.ClientCount())
}

// RoomUsersHandler returns the current roster of a room as a JSON array.
func (s *Server) RoomUsersHandler(w http.ResponseWriter, r *http.Request) {
	users := s.hub.Router().UsersInRoom(r.PathValue("room"))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(users); err != nil {
		log.Printf("Error writing roster response: %v", err)
	}
}

// TestPageHandler serves a small HTML page for trying the relay by hand.
func (s *Server) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>roomchat test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; }
        #users, #typing { color: #555; margin: 5px 0; }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        .system { color: gray; font-style: italic; }
    </style>
</head>
<body>
    <h1>roomchat</h1>
    <div>
        <input type="text" id="username" placeholder="Username">
        <input type="text" id="room" placeholder="Room" value="general">
        <button onclick="join()">Join</button>
    </div>
    <div id="users"></div>
    <div id="messages"></div>
    <div id="typing"></div>
    <div>
        <input type="text" id="content" placeholder="Type a message..." disabled>
        <button id="send" onclick="sendMessage()" disabled>Send</button>
    </div>

    <script>
        let ws = null;
        let typing = false;
        const $ = (id) => document.getElementById(id);

        function send(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ event: event, data: data }));
            }
        }

        function render(msg) {
            const el = document.createElement('div');
            const time = new Date(msg.timestamp).toLocaleTimeString();
            if (msg.type === 'system') {
                el.className = 'system';
                el.textContent = '[' + time + '] ' + msg.content;
            } else {
                el.textContent = '[' + time + '] ' + msg.username + ': ' + msg.content;
            }
            $('messages').appendChild(el);
            $('messages').scrollTop = $('messages').scrollHeight;
        }

        function join() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            if (ws) { ws.close(); }
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => {
                send('join', { username: $('username').value, room: $('room').value });
                $('content').disabled = false;
                $('send').disabled = false;
            };
            ws.onmessage = (event) => {
                const frame = JSON.parse(event.data);
                if (frame.event === 'message') { render(frame.data); }
                if (frame.event === 'userList') { $('users').textContent = 'In room: ' + frame.data.join(', '); }
                if (frame.event === 'typingUsers') {
                    $('typing').textContent = frame.data.length ? frame.data.join(', ') + ' typing...' : '';
                }
            };
            ws.onclose = () => {
                $('content').disabled = true;
                $('send').disabled = true;
            };
        }

        function setTyping(value) {
            if (typing !== value) {
                typing = value;
                send('typing', { isTyping: value, room: $('room').value });
            }
        }

        function sendMessage() {
            const content = $('content').value.trim();
            if (content) {
                send('message', { content: content, room: $('room').value });
                $('content').value = '';
                setTyping(false);
            }
        }

        $('content').addEventListener('input', () => setTyping($('content').value.length > 0));
        $('content').addEventListener('keypress', (e) => { if (e.key === 'Enter') { sendMessage(); } });
    </script>
</body>
</html>`
