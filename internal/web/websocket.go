package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Frame is one websocket message: a snapshot plus the log as it stood when
// that snapshot was taken.
type Frame struct {
	Snapshot      state.Snapshot       `json:"snapshot"`
	Notifications []model.Notification `json:"notifications"`
}

// handleWebsocket streams a Frame for the current world and then one per
// store update. Slow clients skip intermediate updates.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx, s.log)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	s.metrics.WebsocketConnected(1)
	defer s.metrics.WebsocketConnected(-1)

	updates, unsubscribe := s.ctrl.Subscribe(s.wsBuffer)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug(ctx, "websocket read ended", logging.Err(err))
				}
				return
			}
		}
	}()

	snap, notes := s.ctrl.View()
	sent := Frame{Snapshot: snap, Notifications: notes}
	if err := s.writeFrame(conn, sent); err != nil {
		log.Debug(ctx, "websocket write failed", logging.Err(err))
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(writeWait))
				return
			}
			frame := Frame(u)
			// Updates queued between Subscribe and View are already covered
			// by the first frame.
			if !newer(frame, sent) {
				continue
			}
			if err := s.writeFrame(conn, frame); err != nil {
				log.Debug(ctx, "websocket write failed", logging.Err(err))
				return
			}
			sent = frame
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

// newer orders frames by world version, then by newest notification id.
func newer(f, than Frame) bool {
	if f.Snapshot.Version != than.Snapshot.Version {
		return f.Snapshot.Version > than.Snapshot.Version
	}
	return newestID(f) > newestID(than)
}

func newestID(f Frame) uint64 {
	if len(f.Notifications) == 0 {
		return 0
	}
	return f.Notifications[0].ID
}
