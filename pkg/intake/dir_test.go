package intake

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.dot"), `digraph app { a; b; a -> b; }`)
	writeFile(t, filepath.Join(root, "svc", "auth.dot"), `digraph auth { a; }`)

	in, err := ParseDir(root)
	if err != nil {
		t.Fatalf("ParseDir error: %v", err)
	}

	// Node "a" exists in both files but under different namespaces.
	ids := make(map[string]Node)
	for _, n := range in.Nodes {
		ids[n.ID] = n
	}
	if _, ok := ids["app/a"]; !ok {
		t.Errorf("missing namespaced node app/a; nodes: %v", in.Nodes)
	}
	if _, ok := ids["svc/auth/a"]; !ok {
		t.Errorf("missing namespaced node svc/auth/a; nodes: %v", in.Nodes)
	}
	if ids["app/a"].Parent != "app" {
		t.Errorf("app/a parent = %q, want %q", ids["app/a"].Parent, "app")
	}

	sgs := make(map[string]Subgraph)
	for _, sg := range in.Subgraphs {
		sgs[sg.ID] = sg
	}
	// Directory cluster plus one cluster per file.
	if _, ok := sgs["svc"]; !ok {
		t.Error("missing directory cluster svc")
	}
	if sg := sgs["svc/auth"]; sg.Parent != "svc" {
		t.Errorf("svc/auth parent = %q, want svc", sg.Parent)
	}
	if sg := sgs["app"]; sg.Parent != "" {
		t.Errorf("app parent = %q, want top level", sg.Parent)
	}

	if len(in.Edges) != 1 {
		t.Fatalf("EdgeCount = %d, want 1", len(in.Edges))
	}
	if e := in.Edges[0]; e.From != "app/a" || e.To != "app/b" {
		t.Errorf("edge = %+v, want app/a -> app/b", e)
	}
}

func TestParseDirSameStem(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.dot"), `digraph A { x; }`)
	writeFile(t, filepath.Join(root, "app.gv"), `digraph B { y; }`)

	in, err := ParseDir(root)
	if err != nil {
		t.Fatalf("ParseDir error: %v", err)
	}

	sgs := make(map[string]Subgraph)
	for _, sg := range in.Subgraphs {
		sgs[sg.ID] = sg
	}
	if len(sgs) != len(in.Subgraphs) {
		t.Fatalf("duplicate cluster IDs in %+v", in.Subgraphs)
	}
	if sg, ok := sgs["app"]; !ok || sg.Label != "A" {
		t.Errorf("cluster app = %+v, want label A", sg)
	}
	if sg, ok := sgs["app.gv"]; !ok || sg.Label != "B" {
		t.Errorf("cluster app.gv = %+v, want label B", sg)
	}

	nodes := make(map[string]Node)
	for _, n := range in.Nodes {
		nodes[n.ID] = n
	}
	if n, ok := nodes["app/x"]; !ok || n.Parent != "app" {
		t.Errorf("node app/x = %+v, want parent app", n)
	}
	if n, ok := nodes["app.gv/y"]; !ok || n.Parent != "app.gv" {
		t.Errorf("node app.gv/y = %+v, want parent app.gv", n)
	}
}

func TestParseDirFileNamedLikeDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc.dot"), `digraph S { s; }`)
	writeFile(t, filepath.Join(root, "svc", "auth.dot"), `digraph auth { a; }`)

	in, err := ParseDir(root)
	if err != nil {
		t.Fatalf("ParseDir error: %v", err)
	}

	sgs := make(map[string]Subgraph)
	for _, sg := range in.Subgraphs {
		sgs[sg.ID] = sg
	}
	if len(sgs) != len(in.Subgraphs) {
		t.Fatalf("duplicate cluster IDs in %+v", in.Subgraphs)
	}
	// The directory keeps the bare name; the file keeps its extension.
	if sg := sgs["svc"]; sg.Label != "svc" {
		t.Errorf("cluster svc = %+v, want the directory cluster", sg)
	}
	if sg, ok := sgs["svc.dot"]; !ok || sg.Label != "S" {
		t.Errorf("cluster svc.dot = %+v, want label S", sg)
	}
	if sg := sgs["svc/auth"]; sg.Parent != "svc" {
		t.Errorf("svc/auth parent = %q, want svc", sg.Parent)
	}
}

func TestParseDirNoFiles(t *testing.T) {
	_, err := ParseDir(t.TempDir())
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("ParseDir(empty) = %v, want INVALID_INPUT", err)
	}
}

func TestParseDirMissing(t *testing.T) {
	_, err := ParseDir(filepath.Join(t.TempDir(), "absent"))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidPath) {
		t.Errorf("ParseDir(missing) = %v, want INVALID_PATH", err)
	}
}
