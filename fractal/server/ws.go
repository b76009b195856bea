package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"deepzoom/app"
	"deepzoom/hal"
)

// Event is a client message on the live session socket.
type Event struct {
	// Kind is press, move, release, scroll, key, jump or frame.
	Kind string  `json:"kind"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	DY   float64 `json:"dy,omitempty"`
	// Key is escape, home, f1 or a single character.
	Key string `json:"key,omitempty"`
	// ID names the bookmark of a jump.
	ID string `json:"id,omitempty"`
}

// State is sent as a text message before every frame.
type State struct {
	Seq     uint64  `json:"seq"`
	Re      string  `json:"re"`
	Im      string  `json:"im"`
	Zoom    float64 `json:"zoom"`
	Iter    int     `json:"iter"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Skipped uint64  `json:"skipped"`
}

var keyNames = map[string]hal.KeyCode{
	"escape": hal.KeyEscape,
	"home":   hal.KeyHome,
	"f1":     hal.KeyF1,
}

// handleWS runs one session per connection. Every client event is applied,
// the session steps once, and the reply is a State text message followed by
// the display-sized frame as a binary PNG message.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err1 := intParam(q.Get("w"), s.cfg.Width)
	height, err2 := intParam(q.Get("h"), s.cfg.Height)
	if err := errors.Join(err1, err2); err != nil || width <= 0 || height <= 0 || width > s.cfg.MaxWidth || height > s.cfg.MaxHeight {
		httpError(w, http.StatusBadRequest, "bad display size")
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.log.WriteLineString("server: ws accept: " + err.Error())
		return
	}
	defer c.CloseNow()

	id := uuid.NewString()[:8]
	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	h := hal.New(hal.Config{
		Width:     width,
		Height:    height,
		MaxWidth:  s.cfg.MaxWidth,
		MaxHeight: s.cfg.MaxHeight,
		Log:       &lineWriter{log: s.log, prefix: "ws " + id + ": "},
	})
	sess, err := app.NewSession(h, s.cfg.Session)
	if err != nil {
		c.Close(websocket.StatusInternalError, closeReason(err))
		return
	}
	inj := h.(hal.Injector)

	ctx := r.Context()
	if err := s.stepAndSend(ctx, c, sess, h); err != nil {
		s.closeWith(c, id, err)
		return
	}
	for {
		var ev Event
		if err := wsjson.Read(ctx, c, &ev); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				s.log.WriteLineString(fmt.Sprintf("server: ws %s: read: %v", id, err))
			}
			return
		}
		if err := s.apply(ctx, inj, sess, ev); err != nil {
			c.Close(websocket.StatusUnsupportedData, closeReason(err))
			return
		}
		if err := s.stepAndSend(ctx, c, sess, h); err != nil {
			s.closeWith(c, id, err)
			return
		}
	}
}

func (s *Server) apply(ctx context.Context, inj hal.Injector, sess *app.Session, ev Event) error {
	now := time.Now()
	switch ev.Kind {
	case "press":
		inj.InjectPointer(hal.PointerEvent{Kind: hal.PointerPress, X: ev.X, Y: ev.Y, Time: now})
	case "move":
		inj.InjectPointer(hal.PointerEvent{Kind: hal.PointerMove, X: ev.X, Y: ev.Y, Time: now})
	case "release":
		inj.InjectPointer(hal.PointerEvent{Kind: hal.PointerRelease, X: ev.X, Y: ev.Y, Time: now})
	case "scroll":
		inj.InjectPointer(hal.PointerEvent{Kind: hal.PointerScroll, X: ev.X, Y: ev.Y, DY: ev.DY, Time: now})
	case "key":
		if code, ok := keyNames[strings.ToLower(ev.Key)]; ok {
			inj.InjectKey(hal.KeyEvent{Code: code, Press: true})
			return nil
		}
		r, n := utf8.DecodeRuneInString(ev.Key)
		if n == 0 || n != len(ev.Key) {
			return fmt.Errorf("unknown key %q", ev.Key)
		}
		inj.InjectKey(hal.KeyEvent{Press: true, Rune: r})
	case "jump":
		if s.marks == nil {
			return errors.New("no bookmark store")
		}
		b, err := s.marks.Get(ctx, ev.ID)
		if err != nil {
			return err
		}
		sess.Jump(b)
	case "frame":
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return nil
}

func (s *Server) stepAndSend(ctx context.Context, c *websocket.Conn, sess *app.Session, h hal.HAL) error {
	if err := sess.Step(); err != nil {
		return err
	}

	st := sess.Manager().Stats()
	snap := sess.Camera().Snapshot()
	if err := wsjson.Write(ctx, c, State{
		Seq:     st.Last.Seq,
		Re:      snap.Center.Re.String(),
		Im:      snap.Center.Im.String(),
		Zoom:    snap.Zoom,
		Iter:    sess.MaxIter(),
		Width:   st.Last.Width,
		Height:  st.Last.Height,
		Skipped: st.Skipped,
	}); err != nil {
		return err
	}

	img := h.Display().Frame()
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(&buf, img); err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageBinary, buf.Bytes())
}

func (s *Server) closeWith(c *websocket.Conn, id string, err error) {
	if errors.Is(err, hal.ErrQuit) {
		c.Close(websocket.StatusNormalClosure, "quit")
		return
	}
	s.log.WriteLineString(fmt.Sprintf("server: ws %s: %v", id, err))
	c.Close(websocket.StatusInternalError, closeReason(err))
}

// closeReason fits err into a close frame.
func closeReason(err error) string {
	msg := err.Error()
	const limit = 120
	if len(msg) > limit {
		msg = msg[:limit]
	}
	return msg
}

// lineWriter forwards writes to a Logger one line at a time.
type lineWriter struct {
	log    hal.Logger
	prefix string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.log.WriteLineString(w.prefix + line)
	}
	return len(p), nil
}
