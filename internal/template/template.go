// Package template implements the directory-template JSON materializer:
// a tree of {name, children?, files?} nodes built against a
// billy.Filesystem, so a repository's initial layout (or a custom
// per-part layout) can be created against either the OS filesystem or an
// in-memory one in tests.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Node is one directory-template tree node. Unknown JSON keys are
// rejected by Decode.
type Node struct {
	Name     string `json:"name,omitempty"`
	Children []Node `json:"children,omitempty"`
	Files    []File `json:"files,omitempty"`
}

// File is a leaf file name with optional literal content or a reference
// to another named template fragment.
type File struct {
	Name     string `json:"name"`
	Content  string `json:"content,omitempty"`
	Template string `json:"template,omitempty"` // name of another template to inline, resolved by the caller
}

// Decode parses template JSON, rejecting unknown keys.
func Decode(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var n Node
	if err := dec.Decode(&n); err != nil {
		return Node{}, fmt.Errorf("decode template: %w", err)
	}
	return n, nil
}

// builtin returns the root Node for one of the three built-in templates
// shipped with implexa. They differ only in depth: minimal emits
// design/ only; standard adds manufacturing/ and documentation/;
// extended adds tests/ with subdivision.
func builtin(name string) (Node, error) {
	switch name {
	case "minimal":
		return Node{Children: []Node{{Name: "design"}}}, nil
	case "standard":
		return Node{Children: []Node{
			{Name: "design"},
			{Name: "manufacturing"},
			{Name: "documentation"},
		}}, nil
	case "extended":
		return Node{Children: []Node{
			{Name: "design"},
			{Name: "manufacturing"},
			{Name: "documentation"},
			{Name: "tests", Children: []Node{
				{Name: "unit"},
				{Name: "integration"},
			}},
		}}, nil
	default:
		return Node{}, fmt.Errorf("unknown built-in template %q", name)
	}
}

// Materialize builds templateName's tree at root on the OS filesystem.
// A custom template is loaded from
// <root>/config/directory-templates/custom/<name>.json if templateName
// isn't one of minimal/standard/extended.
func Materialize(root, templateName string) error {
	fs := osfs.New(root)
	node, err := resolve(fs, templateName)
	if err != nil {
		return err
	}
	return materializeNode(fs, ".", node)
}

// skeletonDirs are the canonical repository directories created on
// repository initialization, independent of the chosen template.
var skeletonDirs = []string{
	"parts",
	filepath.Join("parts", "libraries"),
	"templates",
	"scripts",
	filepath.Join("config", "workflows"),
	filepath.Join("config", "categories"),
	filepath.Join("config", "directory-templates", "custom"),
	filepath.Join("config", "settings"),
}

// MaterializeRepo builds a new repository's full layout at root: the
// canonical skeleton directories, the three built-in templates written
// under config/directory-templates, empty settings documents, and
// finally the chosen template's own tree.
func MaterializeRepo(root, templateName string) error {
	fs := osfs.New(root)
	for _, d := range skeletonDirs {
		if err := fs.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", d, err)
		}
	}

	for _, name := range []string{"minimal", "standard", "extended"} {
		node, err := builtin(name)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(node, "", "  ")
		if err != nil {
			return fmt.Errorf("encode built-in template %s: %w", name, err)
		}
		path := filepath.Join("config", "directory-templates", name+".json")
		if err := util.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	for _, name := range []string{"app", "git", "user"} {
		path := filepath.Join("config", "settings", name+".json")
		if _, err := fs.Stat(path); err == nil {
			continue
		}
		if err := util.WriteFile(fs, path, []byte("{}\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	// The metadata store and its sidecar files live inside the working
	// tree but belong to the local machine, never to history.
	ignore := []byte("config/implexa.db\n" +
		"config/implexa.db.lock\n" +
		"config/implexa.db-wal\n" +
		"config/implexa.db-shm\n" +
		"config/implexa-diagnostics.log*\n")
	if _, err := fs.Stat(".gitignore"); err != nil {
		if err := util.WriteFile(fs, ".gitignore", ignore, 0o644); err != nil {
			return fmt.Errorf("write .gitignore: %w", err)
		}
	}

	node, err := resolve(fs, templateName)
	if err != nil {
		return err
	}
	return materializeNode(fs, ".", node)
}

// MaterializeFS materializes node directly against an arbitrary
// billy.Filesystem (e.g. memfs.New() in tests), skipping the
// built-in/custom resolution step.
func MaterializeFS(fs billy.Filesystem, node Node) error {
	return materializeNode(fs, ".", node)
}

// NewMemFS constructs an in-memory filesystem for tests.
func NewMemFS() billy.Filesystem { return memfs.New() }

func resolve(fs billy.Filesystem, templateName string) (Node, error) {
	switch templateName {
	case "minimal", "standard", "extended", "":
		name := templateName
		if name == "" {
			name = "standard"
		}
		return builtin(name)
	default:
		data, err := util.ReadFile(fs, filepath.Join("config", "directory-templates", "custom", templateName+".json"))
		if err != nil {
			return Node{}, fmt.Errorf("load custom template %q: %w", templateName, err)
		}
		return Decode(data)
	}
}

func materializeNode(fs billy.Filesystem, dir string, node Node) error {
	path := dir
	if node.Name != "" {
		path = filepath.Join(dir, node.Name)
		if err := fs.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", path, err)
		}
	}
	for _, f := range node.Files {
		filePath := filepath.Join(path, f.Name)
		fh, err := fs.Create(filePath)
		if err != nil {
			return fmt.Errorf("create %s: %w", filePath, err)
		}
		if _, err := fh.Write([]byte(f.Content)); err != nil {
			_ = fh.Close()
			return fmt.Errorf("write %s: %w", filePath, err)
		}
		if err := fh.Close(); err != nil {
			return fmt.Errorf("close %s: %w", filePath, err)
		}
	}
	for _, child := range node.Children {
		if err := materializeNode(fs, path, child); err != nil {
			return err
		}
	}
	return nil
}
