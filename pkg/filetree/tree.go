package filetree

import (
	"sort"
	"strings"

	"github.com/projectvault/projectvault/pkg/models"
)

// RootName is the name of the synthetic root node.
const RootName = "root"

// Node is a node of the reconstructed tree.
// Files carry nil Children; folders always carry a non-nil slice.
type Node struct {
	Name     string             `json:"name"`
	Type     string             `json:"type"`
	Path     string             `json:"path"`
	Record   *models.FileRecord `json:"record,omitempty"`
	Implicit bool               `json:"implicit,omitempty"` // folder materialized only because a deeper record references it
	Children []*Node            `json:"children,omitempty"`
}

// Entry is a flattened (name, path, type) triple.
type Entry struct {
	Name string
	Path string
	Type string
}

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BuildTree reconstructs the hierarchy from flat records.
//
// Intermediate folders referenced by a record's path are created on first use
// even when no folder record exists for them; such nodes are marked Implicit.
// An explicit folder record for the same location takes over the implicit node.
func BuildTree(records []*models.FileRecord) *Node {
	root := newFolder(RootName, "")
	folders := map[string]*Node{"": root}

	// ensureFolder returns the folder node addressed by the normalized full path,
	// creating implicit ancestors as needed.
	var ensureFolder func(full string) *Node
	ensureFolder = func(full string) *Node {
		if node, ok := folders[full]; ok {
			return node
		}
		segments := Segments(full)
		parentPath := strings.Join(segments[:len(segments)-1], Separator)
		parent := ensureFolder(parentPath)

		node := newFolder(segments[len(segments)-1], parentPath)
		node.Implicit = true
		parent.Children = append(parent.Children, node)
		folders[full] = node
		return node
	}

	for _, rec := range records {
		parentPath := Normalize(rec.Path)
		parent := ensureFolder(parentPath)

		if rec.Type == models.FileTypeFolder {
			full := FullPath(parentPath, rec.Name)
			if existing, ok := folders[full]; ok {
				existing.Implicit = false
				existing.Record = rec
				continue
			}
			node := newFolder(rec.Name, parentPath)
			node.Record = rec
			parent.Children = append(parent.Children, node)
			folders[full] = node
			continue
		}

		parent.Children = append(parent.Children, &Node{
			Name:   rec.Name,
			Type:   models.FileTypeFile,
			Path:   parentPath,
			Record: rec,
		})
	}

	sortChildren(root)
	return root
}

// Flatten walks the tree depth-first and returns every record-backed node.
// The synthetic root and implicit folders are skipped.
func Flatten(root *Node) []Entry {
	var entries []Entry
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			if !child.Implicit {
				entries = append(entries, Entry{Name: child.Name, Path: child.Path, Type: child.Type})
			}
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return entries
}

// Breadcrumbs returns the navigation trail for a path, starting at the root.
// It depends only on the path string, not on which folders exist.
func Breadcrumbs(path string) []Crumb {
	segments := Segments(path)
	crumbs := make([]Crumb, 0, len(segments)+1)
	crumbs = append(crumbs, Crumb{Name: RootName, Path: ""})
	cumulative := ""
	for _, segment := range segments {
		cumulative = FullPath(cumulative, segment)
		crumbs = append(crumbs, Crumb{Name: segment, Path: cumulative})
	}
	return crumbs
}

func newFolder(name, path string) *Node {
	return &Node{
		Name:     name,
		Type:     models.FileTypeFolder,
		Path:     path,
		Children: []*Node{},
	}
}

// sortChildren orders folders before files, then by name.
func sortChildren(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Type != b.Type {
			return a.Type == models.FileTypeFolder
		}
		return a.Name < b.Name
	})
	for _, child := range n.Children {
		if child.Children != nil {
			sortChildren(child)
		}
	}
}
