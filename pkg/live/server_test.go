package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/protocol"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

func newTestServer(t *testing.T, root func() *element.Element) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(&ServerConfig{
		CheckOrigin: func(*http.Request) bool { return true },
	}, func(string) *element.Element { return root() }, quietLogger())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		s.Manager().CloseAll()
		ts.Close()
	})
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
}

// handshake dials the live endpoint and completes the hello exchange.
func handshake(t *testing.T, ts *httptest.Server) (*websocket.Conn, protocol.Hello) {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	enc := protocol.NewEncoder()
	hello := protocol.Hello{Version: protocol.Version}
	hello.Encode(enc)
	frame := protocol.NewFrame(protocol.FrameHello, enc.Bytes())
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	reply := readFrameOf(t, conn, protocol.FrameHello)
	got, err := protocol.DecodeHello(protocol.NewDecoder(reply.Payload))
	if err != nil {
		t.Fatalf("decode hello reply: %v", err)
	}
	return conn, got
}

// readFrameOf reads frames until one of the wanted type arrives.
func readFrameOf(t *testing.T, conn *websocket.Conn, want protocol.FrameType) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		frame, err := protocol.DecodeFrame(data)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if frame.Type == want {
			return frame
		}
	}
}

// decodeOpsFrame strips the sequence prefix and decodes the batch.
func decodeOpsFrame(t *testing.T, frame *protocol.Frame) (uint64, []protocol.WireOp) {
	t.Helper()
	d := protocol.NewDecoder(frame.Payload)
	seq, err := d.ReadUvarint()
	if err != nil {
		t.Fatalf("read seq: %v", err)
	}
	ops, err := protocol.DecodeOps(d)
	if err != nil {
		t.Fatalf("decode ops: %v", err)
	}
	return seq, ops
}

func TestServerHealthAndIndex(t *testing.T) {
	_, ts := newTestServer(t, testRoot)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("index content type = %s", ct)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestLiveHandshakeAndInitialOps(t *testing.T) {
	srv, ts := newTestServer(t, testRoot)

	conn, hello := handshake(t, ts)
	if hello.Version != protocol.Version {
		t.Errorf("server version = %d", hello.Version)
	}
	if hello.SessionID == "" {
		t.Fatal("no session ID in reply")
	}
	if _, ok := srv.Manager().Get(hello.SessionID); !ok {
		t.Error("session not registered")
	}

	// The first ops frame carries the whole initial tree.
	frame := readFrameOf(t, conn, protocol.FrameOps)
	if !frame.Flags.Has(protocol.FlagSequenced) || !frame.Flags.Has(protocol.FlagFinal) {
		t.Errorf("flags = %#x", frame.Flags)
	}

	seq, ops := decodeOpsFrame(t, frame)
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	var sawH1 bool
	for _, op := range ops {
		if op.Payload != nil && op.Payload.Tag == "h1" {
			sawH1 = true
		}
	}
	if !sawH1 {
		t.Errorf("initial ops missing the h1 insert: %d ops", len(ops))
	}
}

func TestLiveEventRoundtrip(t *testing.T) {
	root := func() *element.Element {
		return element.Func("counter", func() (*element.Element, error) {
			count := reactive.New(0)
			return element.El("div",
				element.El("button", element.Props{
					"onClick": func() { count.Update(func(n int) int { return n + 1 }) },
				}, "inc"),
				element.El("span", count),
			), nil
		})
	}

	_, ts := newTestServer(t, root)
	conn, _ := handshake(t, ts)

	// Find the button's node ID in the initial tree.
	frame := readFrameOf(t, conn, protocol.FrameOps)
	_, ops := decodeOpsFrame(t, frame)
	buttonID := findNodeID(ops, "button")
	if buttonID == "" {
		t.Fatal("button not found in initial ops")
	}

	enc := protocol.NewEncoder()
	msg := protocol.EventMessage{NodeID: buttonID, Type: "click"}
	msg.Encode(enc)
	event := protocol.NewFrame(protocol.FrameEvent, enc.Bytes())
	if err := conn.WriteMessage(websocket.BinaryMessage, event.Encode()); err != nil {
		t.Fatalf("write event: %v", err)
	}

	// The click increments the counter, and the resulting text change
	// comes back as a SetText op.
	frame = readFrameOf(t, conn, protocol.FrameOps)
	_, ops = decodeOpsFrame(t, frame)
	var sawUpdate bool
	for _, op := range ops {
		if op.Value == "1" {
			sawUpdate = true
		}
	}
	if !sawUpdate {
		t.Errorf("no update op after click: %+v", ops)
	}
}

func TestLiveNavigation(t *testing.T) {
	resolve := func(path string) *element.Element {
		switch path {
		case "/about":
			return element.El("h2", "about")
		default:
			return element.El("h1", "home")
		}
	}

	s := NewServer(&ServerConfig{
		CheckOrigin: func(*http.Request) bool { return true },
	}, resolve, quietLogger())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		s.Manager().CloseAll()
		ts.Close()
	})

	conn, _ := handshake(t, ts)

	frame := readFrameOf(t, conn, protocol.FrameOps)
	_, ops := decodeOpsFrame(t, frame)
	if findNodeID(ops, "h1") == "" {
		t.Fatal("initial page is not the home page")
	}

	enc := protocol.NewEncoder()
	msg := protocol.EventMessage{Type: "navigate", Value: "/about"}
	msg.Encode(enc)
	event := protocol.NewFrame(protocol.FrameEvent, enc.Bytes())
	if err := conn.WriteMessage(websocket.BinaryMessage, event.Encode()); err != nil {
		t.Fatal(err)
	}

	frame = readFrameOf(t, conn, protocol.FrameOps)
	_, ops = decodeOpsFrame(t, frame)
	if findNodeID(ops, "h2") == "" {
		t.Errorf("navigation did not ship the about page: %+v", ops)
	}
}

func TestLiveRejectsVersionMismatch(t *testing.T) {
	_, ts := newTestServer(t, testRoot)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	enc := protocol.NewEncoder()
	hello := protocol.Hello{Version: 99}
	hello.Encode(enc)
	frame := protocol.NewFrame(protocol.FrameHello, enc.Bytes())
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("server kept a mismatched connection open")
	}
}

func TestLivePingPong(t *testing.T) {
	_, ts := newTestServer(t, testRoot)
	conn, _ := handshake(t, ts)

	ping := protocol.NewFrame(protocol.FramePing, nil)
	if err := conn.WriteMessage(websocket.BinaryMessage, ping.Encode()); err != nil {
		t.Fatal(err)
	}

	pong := readFrameOf(t, conn, protocol.FramePong)
	if pong.Type != protocol.FramePong {
		t.Errorf("type = %v", pong.Type)
	}
}

// findNodeID walks insert payloads for the first node with the tag.
func findNodeID(ops []protocol.WireOp, tag string) string {
	var walk func(p *protocol.NodePayload) string
	walk = func(p *protocol.NodePayload) string {
		if p.Tag == tag {
			return p.ID
		}
		for i := range p.Children {
			if id := walk(&p.Children[i]); id != "" {
				return id
			}
		}
		return ""
	}
	for _, op := range ops {
		if op.Payload != nil {
			if id := walk(op.Payload); id != "" {
				return id
			}
		}
	}
	return ""
}
