package tui

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch_ParsesWorldData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"turtles":{"1":{"x":1,"y":2,"z":3,"dir":"North","queue":2}},"blocks":[{"x":0,"y":0,"z":0,"name":"stone","color":"#808080"}]}`))
	}))
	defer srv.Close()

	m := New(srv.URL)
	msg := m.fetch().(dataMsg)
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if len(msg.turtles) != 1 || msg.turtles[0].ID != "1" {
		t.Fatalf("expected 1 turtle with id 1, got %v", msg.turtles)
	}
	if msg.blockColors["#808080"] != 1 {
		t.Errorf("expected 1 stone-colored block, got %d", msg.blockColors["#808080"])
	}
}

func TestFetch_ReportsTransportError(t *testing.T) {
	m := New("http://127.0.0.1:1")
	msg := m.fetch().(dataMsg)
	if msg.err == nil {
		t.Error("expected an error for an unreachable server")
	}
}
