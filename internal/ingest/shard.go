package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheRockettek/czlib"
	"nhooyr.io/websocket"

	"github.com/sandwich-relay/sandwich/internal/discord"
)

// shard owns one gateway websocket connection and feeds every qualifying
// dispatch to the cache engine.
type shard struct {
	manager *Manager
	id      int
	count   int

	wsConn  *websocket.Conn
	wsMutex sync.Mutex

	seq       atomic.Int64
	sessionID string
	resumeURL string

	lastHeartbeatSent time.Time
	lastHeartbeatAck  time.Time
}

// run drives the shard until ctx is cancelled, reconnecting after every
// disconnect; a disconnect that cannot be resumed starts a fresh session.
func (s *shard) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			continue
		}

		s.manager.log.Warn().Int("shard", s.id).Err(err).Msg("shard disconnected, reconnecting")
		if !s.canResume(err) {
			s.sessionID = ""
			s.seq.Store(0)
		}

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (s *shard) connect(ctx context.Context) error {
	s.manager.identifyGate.wait(s.id)

	gatewayURL := s.manager.gatewayURL
	if s.resumeURL != "" {
		gatewayURL = s.resumeURL
	}

	conn, _, err := websocket.Dial(ctx, gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(512 << 20)
	s.wsConn = conn
	defer func() {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.wsConn = nil
	}()

	event, err := s.readEvent(ctx)
	if err != nil {
		return fmt.Errorf("read hello: %w", err)
	}

	var hello discord.Hello
	if err := json.Unmarshal(event.RawData, &hello); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	interval := time.Duration(hello.HeartbeatIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if s.sessionID == "" {
		if err := s.writeJSON(ctx, discord.OpIdentify, s.identifyPacket()); err != nil {
			return fmt.Errorf("identify: %w", err)
		}
	} else {
		if err := s.writeJSON(ctx, discord.OpResume, discord.ResumeData{
			Token:     s.manager.token,
			SessionID: s.sessionID,
			Sequence:  s.seq.Load(),
		}); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
	}

	events := make(chan discord.Event)
	readErrs := make(chan error, 1)
	go func() {
		for {
			ev, err := s.readEvent(ctx)
			if err != nil {
				readErrs <- err
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			seq := s.seq.Load()
			s.lastHeartbeatSent = time.Now()
			if err := s.writeJSON(ctx, discord.OpHeartbeat, seq); err != nil {
				return fmt.Errorf("heartbeat: %w", err)
			}
		case err := <-readErrs:
			return err
		case ev := <-events:
			s.handle(ctx, ev)
		}
	}
}

func (s *shard) handle(ctx context.Context, ev discord.Event) {
	if ev.Sequence != 0 {
		s.seq.Store(ev.Sequence)
	}

	switch ev.Operation {
	case discord.OpHeartbeatACK:
		s.lastHeartbeatAck = time.Now()
		return
	case discord.OpReconnect:
		return
	case discord.OpInvalidSession:
		s.sessionID = ""
		s.seq.Store(0)
		return
	case discord.OpDispatch:
	default:
		return
	}

	if ev.Type == "READY" {
		var ready discord.Ready
		if err := json.Unmarshal(ev.RawData, &ready); err == nil {
			s.sessionID = ready.SessionID
			s.resumeURL = ready.ResumeGatewayURL
		}
	}

	if ignoredDispatchTypes[ev.Type] || len(ev.RawData) == 0 {
		return
	}

	envelope, err := json.Marshal(ev)
	if err != nil {
		return
	}

	shardID, eventType, data := s.id, ev.Type, ev.RawData
	go func() {
		outcome, err := s.manager.engine.Process(ctx, envelope, eventType, data)
		if err != nil {
			s.manager.log.Error().Int("shard", shardID).Str("type", eventType).Err(err).Msg("cache engine error")
			return
		}
		s.manager.log.Debug().Int("shard", shardID).Str("type", eventType).Str("outcome", outcome.String()).Msg("processed event")
	}()
}

func (s *shard) writeJSON(ctx context.Context, op int, data interface{}) error {
	payload, err := json.Marshal(struct {
		Op   int         `json:"op"`
		Data interface{} `json:"d"`
	}{Op: op, Data: data})
	if err != nil {
		return err
	}

	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()
	return s.wsConn.Write(ctx, websocket.MessageText, payload)
}

func (s *shard) readEvent(ctx context.Context) (discord.Event, error) {
	mt, buf, err := s.wsConn.Read(ctx)
	if err != nil {
		return discord.Event{}, err
	}

	if mt == websocket.MessageBinary {
		buf, err = czlib.Decompress(buf)
		if err != nil {
			return discord.Event{}, fmt.Errorf("decompress: %w", err)
		}
	}

	var ev discord.Event
	if err := json.Unmarshal(buf, &ev); err != nil {
		return discord.Event{}, fmt.Errorf("unmarshal: %w", err)
	}
	return ev, nil
}

func (s *shard) identifyPacket() discord.Identify {
	return discord.Identify{
		Token: s.manager.token,
		Properties: discord.IdentifyProperties{
			OS:      runtime.GOOS,
			Browser: "sandwich-relay",
			Device:  "sandwich-relay",
		},
		Compress:       false,
		LargeThreshold: 100,
		Shard:          &[2]int{s.id, s.count},
		Intents:        identifyIntents,
	}
}

// canResume reports whether the disconnect preserves resumability; a
// reconnect that clears the session id starts a fresh identify instead.
func (s *shard) canResume(err error) bool {
	status := websocket.CloseStatus(err)
	switch status {
	case 4004, 4010, 4011, 4012, 4013, 4014:
		return false
	default:
		return s.sessionID != ""
	}
}
