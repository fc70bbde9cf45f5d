package intake

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

// ParseDir walks a directory tree for DOT files (*.dot, *.gv) and merges
// them into one Input. Each directory becomes a cluster, each file's graph
// a cluster under its directory chain, and node identifiers are namespaced
// by the file's relative path so equally named nodes in different files
// never collide. A file whose stripped name would collide with a sibling
// (app.dot next to app.gv, or next to a directory app/) keeps its
// extension in the cluster ID. Files are parsed concurrently; the merge
// runs over the sorted file list afterwards, keeping the result
// deterministic.
func ParseDir(root string) (*Input, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".dot", ".gv":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidPath, err, "walk %s", root)
	}
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "no DOT files under %s", root)
	}
	slices.Sort(files)

	rels := make([]string, len(files))
	for i, p := range files {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidPath, err, "relativize %s", p)
		}
		rels[i] = filepath.ToSlash(rel)
	}
	prefixes := filePrefixes(rels)

	// Parse every file independently, one slot per file so the merge can
	// run in sorted order regardless of completion order.
	parsed := make([]*Input, len(files))
	var grp errgroup.Group
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		grp.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInvalidPath, err, "read %s", path)
			}
			in, err := ParseDOT(src)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse %s", path)
			}
			parsed[i] = in
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	merged := &Input{Name: filepath.Base(filepath.Clean(root))}
	dirSeen := make(map[string]bool)

	for i := range files {
		dirParent := addDirClusters(merged, rels[i], dirSeen)
		merged.Subgraphs = append(merged.Subgraphs, Subgraph{
			ID:     prefixes[i],
			Label:  parsed[i].Name,
			Parent: dirParent,
		})
		mergeFile(merged, parsed[i], prefixes[i])
	}

	slices.SortFunc(merged.Nodes, func(a, b Node) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(merged.Subgraphs, func(a, b Subgraph) int { return strings.Compare(a.ID, b.ID) })
	return merged, nil
}

// filePrefixes derives each file's namespace prefix, normally the
// relative path with the extension stripped. Directory IDs are claimed
// first so a file never shadows a directory cluster; among files the
// sorted order decides who keeps the short prefix.
func filePrefixes(rels []string) []string {
	taken := make(map[string]bool)
	for _, rel := range rels {
		for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
			taken[dir] = true
		}
	}

	prefixes := make([]string, len(rels))
	for i, rel := range rels {
		p := strings.TrimSuffix(rel, path.Ext(rel))
		if taken[p] {
			p = rel
		}
		taken[p] = true
		prefixes[i] = p
	}
	return prefixes
}

// addDirClusters emits one cluster per directory on the file's relative
// path and returns the innermost directory cluster ID ("" for files at
// the root of the tree).
func addDirClusters(merged *Input, rel string, seen map[string]bool) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	parts := strings.Split(dir, "/")
	parent := ""
	for i := range parts {
		id := strings.Join(parts[:i+1], "/")
		if !seen[id] {
			seen[id] = true
			merged.Subgraphs = append(merged.Subgraphs, Subgraph{
				ID:     id,
				Label:  parts[i],
				Parent: parent,
			})
		}
		parent = id
	}
	return parent
}

// mergeFile appends one parsed file into the merged input, namespacing
// every identifier with the file's path prefix. The file's own cluster
// adopts entities declared at the file's top level.
func mergeFile(merged *Input, in *Input, prefix string) {
	qualify := func(id string) string { return prefix + "/" + id }
	reparent := func(parent string) string {
		if parent == "" {
			return prefix
		}
		return qualify(parent)
	}

	for _, sg := range in.Subgraphs {
		merged.Subgraphs = append(merged.Subgraphs, Subgraph{
			ID:     qualify(sg.ID),
			Label:  sg.Label,
			Parent: reparent(sg.Parent),
		})
	}
	for _, n := range in.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		merged.Nodes = append(merged.Nodes, Node{
			ID:     qualify(n.ID),
			Label:  label,
			Parent: reparent(n.Parent),
		})
	}
	for _, e := range in.Edges {
		merged.Edges = append(merged.Edges, Edge{
			From:  qualify(e.From),
			To:    qualify(e.To),
			Label: e.Label,
		})
	}
}
