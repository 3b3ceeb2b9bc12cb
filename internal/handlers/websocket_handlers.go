package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"quartier-watch/internal/middleware"
	"quartier-watch/internal/models"
	"quartier-watch/internal/websocket"

	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS middleware.
		return true
	},
}

// HandleWebSocket upgrades the connection and attaches a notification
// router for the user's quartier. The token travels in a query
// parameter because browsers cannot set headers on the upgrade request.
// Optional lat/lng parameters give the geofence the device position;
// without them the user receives quartier-wide alerts only.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			log.Printf("WebSocket: invalid token: %v", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		user, err := s.MongoDB.GetUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}
		if err := s.Gate.CheckUser(user); err != nil {
			respondGateError(w, err)
			return
		}

		var location *models.Location
		latStr, lngStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lng")
		if latStr != "" && lngStr != "" {
			lat, latErr := strconv.ParseFloat(latStr, 64)
			lng, lngErr := strconv.ParseFloat(lngStr, 64)
			if latErr != nil || lngErr != nil {
				http.Error(w, "Invalid lat/lng format", http.StatusBadRequest)
				return
			}
			location = &models.Location{
				Latitude:   lat,
				Longitude:  lng,
				CapturedAt: time.Now(),
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			log.Printf("WebSocket: upgrade failed for user %s: %v", user.ID, err)
			return
		}
		log.Printf("WebSocket: user %s connected", user.ID)

		client := websocket.NewClient(s.Hub, user.ID, conn)
		s.Hub.Register(client)

		go client.WritePump()
		go client.ReadPump()

		s.Notifier.Connect(context.Background(), user.ID, user.Quartier, location)
	}
}
