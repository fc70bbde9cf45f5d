package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bgraph-dev/dot2bgraph/pkg/cache"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
)

func testInput() *intake.Input {
	return &intake.Input{
		Name: "svc",
		Subgraphs: []intake.Subgraph{
			{ID: "backend"},
		},
		Nodes: []intake.Node{
			{ID: "api", Parent: "backend"},
			{ID: "db", Parent: "backend"},
			{ID: "web"},
		},
		Edges: []intake.Edge{
			{From: "web", To: "api"},
			{From: "api", To: "db"},
		},
	}
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"json", "svg", "png", "pdf"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v, want nil", f, err)
		}
	}
	if err := ValidateFormat("gif"); err == nil {
		t.Error("ValidateFormat(gif) should fail")
	}
	if err := ValidateFormats([]string{"json", "bmp"}); err == nil {
		t.Error("ValidateFormats with invalid entry should fail")
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", opts.Workers, DefaultWorkers)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %g, want %g", opts.Scale, DefaultScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestConvert(t *testing.T) {
	r := NewRunner(nil, testLogger())
	defer r.Close()

	res, err := r.Convert(context.Background(), testInput(), Options{
		Formats: []string{"json", "svg"},
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	if res.Model == nil {
		t.Fatal("Convert returned nil model")
	}
	if res.Stats.BlockCount != 5 {
		t.Errorf("BlockCount = %d, want 5 (root, backend, api, db, web)", res.Stats.BlockCount)
	}
	if res.Stats.ConnectionCount != 2 {
		t.Errorf("ConnectionCount = %d, want 2", res.Stats.ConnectionCount)
	}
	if res.Stats.PortCount != 4 {
		t.Errorf("PortCount = %d, want 4", res.Stats.PortCount)
	}
	if res.ModelHash == "" {
		t.Error("ModelHash should be set")
	}

	jsonArt, ok := res.Artifacts["json"]
	if !ok || len(jsonArt) == 0 {
		t.Error("missing json artifact")
	}
	svgArt, ok := res.Artifacts["svg"]
	if !ok || !strings.Contains(string(svgArt), "<svg") {
		t.Error("missing or malformed svg artifact")
	}
}

func TestConvertInvalidFormat(t *testing.T) {
	r := NewRunner(nil, testLogger())
	_, err := r.Convert(context.Background(), testInput(), Options{
		Formats: []string{"tiff"},
		Logger:  testLogger(),
	})
	if err == nil {
		t.Fatal("Convert with invalid format should fail")
	}
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, testLogger())
	_, err := r.Convert(ctx, testInput(), Options{Logger: testLogger()})
	if err == nil {
		t.Fatal("Convert with cancelled context should fail")
	}
}

func TestRenderCacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, testLogger())
	defer r.Close()

	opts := Options{Formats: []string{"svg"}, Logger: testLogger()}

	first, err := r.Convert(context.Background(), testInput(), opts)
	if err != nil {
		t.Fatalf("first Convert error: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first render should miss the cache")
	}

	second, err := r.Convert(context.Background(), testInput(), opts)
	if err != nil {
		t.Fatalf("second Convert error: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second render should hit the cache")
	}
	if string(first.Artifacts["svg"]) != string(second.Artifacts["svg"]) {
		t.Error("cached artifact differs from rendered artifact")
	}
}

func TestRenderDigestDistinguishesOptions(t *testing.T) {
	a := Options{CellSize: 12}
	b := Options{CellSize: 16}
	if a.renderDigest() == b.renderDigest() {
		t.Error("digests should differ for different cell sizes")
	}
}

func TestConvertBatch(t *testing.T) {
	r := NewRunner(nil, testLogger())
	defer r.Close()

	items := []BatchItem{
		{Name: "a.dot", Input: testInput()},
		{Name: "b.dot", Input: &intake.Input{
			Name:  "other",
			Nodes: []intake.Node{{ID: "solo"}},
		}},
	}

	batch, err := r.ConvertBatch(context.Background(), items, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("ConvertBatch error: %v", err)
	}
	if batch.RunID == "" {
		t.Error("RunID should be set")
	}
	if len(batch.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(batch.Results))
	}
	if _, ok := batch.Results["a.dot"]; !ok {
		t.Error("missing result for a.dot")
	}
	if _, ok := batch.Results["b.dot"]; !ok {
		t.Error("missing result for b.dot")
	}
}

func TestConvertBatchFailure(t *testing.T) {
	r := NewRunner(nil, testLogger())

	items := []BatchItem{
		{Name: "bad.dot", Input: &intake.Input{
			Name:  "bad",
			Nodes: []intake.Node{{ID: "n", Parent: "ghost"}},
		}},
	}

	_, err := r.ConvertBatch(context.Background(), items, Options{Logger: testLogger()})
	if err == nil {
		t.Fatal("ConvertBatch with unknown parent should fail")
	}
	if !strings.Contains(err.Error(), "bad.dot") {
		t.Errorf("error should name the failing item: %v", err)
	}
}
