package viewer

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bgraph-dev/dot2bgraph/pkg/render/sink"
)

func writeTestModel(t *testing.T) string {
	t.Helper()
	m := &sink.Model{
		Width:            10,
		Height:           5,
		BgColor:          sink.DefaultBgColor,
		HighlightBgColor: sink.DefaultHighlightBgColor,
		HighlightFgColor: sink.DefaultHighlightFgColor,
		Blocks: []sink.ModelBlock{
			{ID: 0, X: 0, Y: 0, Width: 10, Height: 5, Color: 0xCCCCCC, EdgeEnds: []int{}},
		},
		EdgeEnds: []sink.ModelEdgeEnd{},
	}
	data, err := sink.MarshalModel(m)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bgraph.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHandlerRoutes(t *testing.T) {
	h := Handler(Options{ModelPath: writeTestModel(t)})
	srv := httptest.NewServer(h)
	defer srv.Close()

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html; charset=utf-8", "dot2bgraph"},
		{"/model.json", "application/json", `"blocks"`},
		{"/model.svg", "image/svg+xml", "<svg"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("GET %s = %d, want 200", tt.path, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			buf := make([]byte, 64*1024)
			n, _ := resp.Body.Read(buf)
			if !strings.Contains(string(buf[:n]), tt.contains) {
				t.Errorf("GET %s body missing %q", tt.path, tt.contains)
			}
		})
	}
}

func TestHandlerMissingModel(t *testing.T) {
	h := Handler(Options{ModelPath: filepath.Join(t.TempDir(), "absent.json")})
	srv := httptest.NewServer(h)
	defer srv.Close()

	for _, path := range []string{"/model.json", "/model.svg"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}
