package server

import (
	"github.com/gorilla/websocket"

	"github.com/example/roomchat/internal/chat"
)

// Server ties together the configuration, the hub and the WebSocket upgrader.
// One Server is constructed per process.
type Server struct {
	cfg      Config
	hub      *Hub
	origins  *originPolicy
	upgrader websocket.Upgrader
}

// New builds a Server from cfg. A nil cfg uses defaults. Router options are
// forwarded to the hub's chat router.
func New(cfg *Config, opts ...chat.Option) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := sanitizeConfig(*cfg)

	s := &Server{
		cfg:     sanitized,
		hub:     NewHub(sanitized.SendBufferSize, opts...),
		origins: newOriginPolicy(sanitized.AllowedOrigins),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// Config returns the sanitized configuration the server runs with.
func (s *Server) Config() Config {
	cfg := s.cfg
	cfg.AllowedOrigins = append([]string(nil), s.cfg.AllowedOrigins...)
	return cfg
}

// Hub returns the server's hub for startup and shutdown coordination.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router returns the chat router behind the hub.
func (s *Server) Router() *chat.Router {
	return s.hub.Router()
}
