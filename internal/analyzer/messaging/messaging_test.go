package messaging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverJS = `const io = require('socket.io')(http);
io.use(authenticate);
const chat = io.of('/chat');

io.on('connection', (socket) => {
  socket.join('lobby');
  socket.on('chat:message', (msg) => {
    if (!validateMessage(msg)) return;
    io.to('lobby').emit('chat:message', msg);
  });
  socket.on('typing', () => {});
  socket.broadcast.emit('user:joined', socket.id);
});
`

const clientJS = `import { io } from 'socket.io-client';
const socket = io('http://localhost:3000');
socket.on('connect', () => {});
socket.emit('typing');
socket.on('user:joined', (id) => {});
socket.emit('ping:server');
const ws = new WebSocket('wss://example.com/feed');
ws.addEventListener('message', (e) => {});
`

type eventKey struct {
	typ, name string
	line      int
}

func keys(events []Event) []eventKey {
	out := make([]eventKey, 0, len(events))
	for _, e := range events {
		out = append(out, eventKey{e.Type, e.Name, e.Line})
	}
	return out
}

func TestScanServer(t *testing.T) {
	fe := Scan("server.js", serverJS)

	require.Len(t, fe.connections, 1)
	assert.Equal(t, Connection{ID: "server.js-server-0", Type: ConnServer, Name: "io", File: "server.js", Line: 1}, fe.connections[0])
	assert.Equal(t, []string{"/chat"}, fe.namespaces)
	assert.Equal(t, []string{"lobby"}, fe.rooms)
	assert.Equal(t, []string{"authenticate"}, fe.middlewares)

	assert.Equal(t, []eventKey{
		{EventListener, "connection", 5},
		{EventListener, "chat:message", 7},
		{EventEmit, "chat:message", 9},
		{EventListener, "typing", 11},
		{EventEmit, "user:joined", 12},
	}, keys(fe.events))

	assert.True(t, fe.events[1].Validated)
	assert.False(t, fe.events[3].Validated)
	assert.Equal(t, "lobby", fe.events[2].Room)
	assert.Equal(t, "io.to('lobby')", fe.events[2].Emitter)
	assert.Equal(t, "socket.broadcast", fe.events[4].Emitter)
}

func TestScanClient(t *testing.T) {
	fe := Scan("client.js", clientJS)

	require.Len(t, fe.connections, 3)
	assert.Equal(t, ConnClient, fe.connections[0].Type)
	assert.Equal(t, "io", fe.connections[0].Name)
	assert.Equal(t, "socket", fe.connections[1].Name)
	assert.Equal(t, "http://localhost:3000", fe.connections[1].URL)
	assert.Equal(t, ConnNative, fe.connections[2].Type)
	assert.Equal(t, "ws", fe.connections[2].Name)
	assert.Equal(t, "wss://example.com/feed", fe.connections[2].URL)

	assert.Equal(t, []eventKey{
		{EventListener, "connect", 3},
		{EventEmit, "typing", 4},
		{EventListener, "user:joined", 5},
		{EventEmit, "ping:server", 6},
		{EventListener, "message", 8},
	}, keys(fe.events))
}

func TestEventsAreNotDeduplicated(t *testing.T) {
	fe := Scan("a.js", "socket.emit('save');\nsocket.emit('save');\nsocket.on('save', h);\n")
	require.Len(t, fe.events, 3)

	pairs, unmatched := PairEvents(fe.events)
	require.Len(t, pairs, 2)
	assert.Equal(t, pairs[0].Listener.ID, pairs[1].Listener.ID)
	assert.Empty(t, unmatched)
}

func TestPairEventsReportsBothSides(t *testing.T) {
	events := []Event{
		{ID: "1", Name: "a", Type: EventEmit},
		{ID: "2", Name: "b", Type: EventListener},
		{ID: "3", Name: "b", Type: EventListener},
		{ID: "4", Name: "b", Type: EventEmit},
	}
	pairs, unmatched := PairEvents(events)
	require.Len(t, pairs, 1)
	assert.Equal(t, "2", pairs[0].Listener.ID)
	assert.Equal(t, []string{"1", "3"}, []string{unmatched[0].ID, unmatched[1].ID})
}

func TestMiddlewareNames(t *testing.T) {
	fe := Scan("a.js", "io.use(auth.verify);\nio.use((socket, next) => next());\nio.use(function (s, n) {});\nio.use(auth.verify);\n")
	assert.Equal(t, []string{"auth.verify", "anonymous"}, fe.middlewares)
}

func TestSecurityIssues(t *testing.T) {
	fe := Scan("srv.js", "const WebSocket = require('ws');\nconst wss = new WebSocket.Server({ port: 8080 });\nwss.on('connection', h);\nsocket.on('update', (d) => save(d));\n")
	res := &Result{Connections: fe.connections, Events: fe.events}
	require.Len(t, fe.connections, 1)
	assert.Equal(t, "wss", fe.connections[0].Name)
	assert.Equal(t, []string{
		"No authentication middleware registered for server at srv.js:2",
		"Listener 'update' at srv.js:4 does not validate its payload",
	}, SecurityIssues(res))
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "server.js"), filepath.Join(dir, "client.js")}
	require.NoError(t, os.WriteFile(paths[0], []byte(serverJS), 0o644))
	require.NoError(t, os.WriteFile(paths[1], []byte(clientJS), 0o644))

	a, err := New()
	require.NoError(t, err)
	res, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)

	assert.Len(t, res.Connections, 4)
	assert.Len(t, res.Events, 10)
	assert.Equal(t, []string{"lobby"}, res.Rooms)
	assert.Len(t, res.Pairs, 3)

	var unmatched []string
	for _, e := range res.Unmatched {
		unmatched = append(unmatched, e.Type+":"+e.Name)
	}
	assert.Equal(t, []string{"emit:ping:server", "listener:connection", "listener:connect", "listener:message"}, unmatched)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "'ping:server'")

	require.Len(t, res.SecurityIssues, 1)
	assert.Contains(t, res.SecurityIssues[0], "'typing'")
	assert.Equal(t, 3, res.Metadata["pairedEvents"])
	assert.Equal(t, 4, res.Metadata["emits"])
	assert.Equal(t, 6, res.Metadata["listeners"])
}
