package loader

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/pathutil"
	"github.com/erraggy/oasbind/oaserrors"
)

var (
	versionRegex   = regexp.MustCompile(`^3\.0\.\d+$`)
	yamlLineRegex  = regexp.MustCompile(`line (\d+)`)
	defaultDocName = "openapi.yaml"
)

type loader struct {
	cfg     *config
	doc     *Document
	baseDir string
	// files maps an absolute path or URL to its source index.
	files map[string]int
	// anchors maps anchored yaml nodes to the arena node built for them.
	anchors map[*yaml.Node]NodeID
	refs    int
}

// Load parses and resolves a specification document.
//
// Exactly one input source must be given (WithFilePath, WithReader or
// WithBytes). The returned Document is immutable.
//
// Errors:
//   - *oaserrors.ConfigError for invalid options
//   - *oaserrors.DocumentError for syntax errors, a non-mapping root, or an
//     openapi version other than 3.0.x
//   - *oaserrors.ReferenceError for references that cannot be resolved
//   - *oaserrors.UnsupportedFeatureError for XML media types
//   - *oaserrors.ResourceLimitError for oversize files and ref chains deeper
//     than the configured limit
func Load(opts ...Option) (*Document, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("loader: invalid options: %w", err)
	}

	l := &loader{
		cfg:     cfg,
		doc:     &Document{index: make(map[string]NodeID)},
		files:   make(map[string]int),
		anchors: make(map[*yaml.Node]NodeID),
	}

	name, data, err := l.readInput()
	if err != nil {
		return nil, err
	}
	if _, err := l.addSource(name, data); err != nil {
		return nil, err
	}
	l.doc.root = l.doc.roots[0]

	if err := l.checkRoot(name); err != nil {
		return nil, err
	}

	// Sources loaded while resolving append nodes; the loop picks them up.
	for i := 0; i < len(l.doc.nodes); i++ {
		if l.doc.nodes[i].Ref == "" {
			continue
		}
		if _, err := l.resolve(NodeID(i), 0); err != nil {
			return nil, err
		}
	}

	if err := l.checkMediaTypes(); err != nil {
		return nil, err
	}

	cfg.logger.Info("document loaded",
		"source", name,
		"version", l.doc.Version,
		"nodes", len(l.doc.nodes),
		"refs", l.refs,
		"files", len(l.doc.sources),
	)
	return l.doc, nil
}

func (l *loader) readInput() (string, []byte, error) {
	cfg := l.cfg
	switch {
	case cfg.filePath != nil:
		abs, err := filepath.Abs(*cfg.filePath)
		if err != nil {
			return "", nil, &oaserrors.DocumentError{Path: *cfg.filePath, Message: "invalid path", Cause: err}
		}
		l.setBaseDir(filepath.Dir(abs))
		data, err := l.readFile(abs)
		if err != nil {
			return "", nil, err
		}
		return abs, data, nil

	default:
		l.setBaseDir(".")
		name := cfg.sourceName
		if name == "" {
			name = defaultDocName
		}
		data := cfg.bytes
		if cfg.reader != nil {
			var err error
			data, err = io.ReadAll(io.LimitReader(cfg.reader, cfg.maxFileSize+1))
			if err != nil {
				return "", nil, &oaserrors.DocumentError{Path: name, Message: "failed to read input", Cause: err}
			}
		}
		if int64(len(data)) > cfg.maxFileSize {
			return "", nil, fileSizeError(name, cfg.maxFileSize, int64(len(data)))
		}
		if isHTTP(name) {
			return name, data, nil
		}
		return filepath.Join(l.baseDir, name), data, nil
	}
}

func (l *loader) setBaseDir(fallback string) {
	dir := l.cfg.baseDir
	if dir == "" {
		dir = fallback
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	l.baseDir = dir
}

func (l *loader) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &oaserrors.DocumentError{Path: path, Message: "failed to read file", Cause: err}
	}
	if info.Size() > l.cfg.maxFileSize {
		return nil, fileSizeError(path, l.cfg.maxFileSize, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &oaserrors.DocumentError{Path: path, Message: "failed to read file", Cause: err}
	}
	return data, nil
}

func fileSizeError(name string, limit, actual int64) error {
	return &oaserrors.ResourceLimitError{
		ResourceType: "file_size",
		Limit:        limit,
		Actual:       actual,
		Message:      name,
	}
}

// addSource decodes data and copies it into the arena under a new source index.
func (l *loader) addSource(name string, data []byte) (int, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		derr := &oaserrors.DocumentError{Path: name, Message: "invalid YAML/JSON", Cause: err}
		if m := yamlLineRegex.FindStringSubmatch(err.Error()); m != nil {
			derr.Line, _ = strconv.Atoi(m[1])
		}
		return 0, derr
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return 0, &oaserrors.DocumentError{Path: name, Message: "document is empty"}
	}

	src := len(l.doc.sources)
	l.doc.sources = append(l.doc.sources, name)
	l.files[name] = src
	id := l.build(root.Content[0], src, "#")
	l.doc.roots = append(l.doc.roots, id)

	l.cfg.logger.Debug("parsed source", "source", name, "bytes", len(data))
	return src, nil
}

// build copies a yaml.Node subtree into the arena and returns its id.
func (l *loader) build(n *yaml.Node, src int, ptr string) NodeID {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		if id, ok := l.anchors[n.Alias]; ok {
			return id
		}
		n = n.Alias
	}

	id := NodeID(len(l.doc.nodes))
	l.doc.nodes = append(l.doc.nodes, Node{
		Source:  src,
		Pointer: ptr,
		Line:    n.Line,
		Column:  n.Column,
		Target:  NoNode,
	})
	if n.Anchor != "" {
		l.anchors[n] = id
	}

	switch n.Kind {
	case yaml.MappingNode:
		keys := make([]string, 0, len(n.Content)/2)
		children := make([]NodeID, 0, len(n.Content)/2)
		var ref string
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val := n.Content[i+1]
			if key == "$ref" && val.Kind == yaml.ScalarNode {
				ref = val.Value
			}
			keys = append(keys, key)
			children = append(children, l.build(val, src, ptr+"/"+pathutil.EscapeSegment(key)))
		}
		node := &l.doc.nodes[id]
		node.Kind = MappingNode
		node.Keys = keys
		node.Children = children
		node.Ref = ref

	case yaml.SequenceNode:
		children := make([]NodeID, 0, len(n.Content))
		for i, item := range n.Content {
			children = append(children, l.build(item, src, ptr+"/"+strconv.Itoa(i)))
		}
		node := &l.doc.nodes[id]
		node.Kind = SequenceNode
		node.Children = children

	default:
		node := &l.doc.nodes[id]
		node.Kind = ScalarNode
		node.Tag = n.ShortTag()
		node.Value = n.Value
	}
	return id
}

func (l *loader) checkRoot(name string) error {
	root := &l.doc.nodes[l.doc.root]
	if root.Kind != MappingNode {
		return &oaserrors.DocumentError{Path: name, Line: root.Line, Column: root.Column, Message: "document root must be a mapping"}
	}
	vid := l.doc.Raw(l.doc.root, "openapi")
	if vid == NoNode {
		return &oaserrors.DocumentError{Path: name, Line: 1, Message: "missing openapi field"}
	}
	v := &l.doc.nodes[vid]
	if v.Kind != ScalarNode || !versionRegex.MatchString(v.Value) {
		return &oaserrors.DocumentError{
			Path:    name,
			Line:    v.Line,
			Column:  v.Column,
			Message: fmt.Sprintf("unsupported OpenAPI version %q (only 3.0.x is supported)", v.Value),
		}
	}
	l.doc.Version = v.Value
	return nil
}

// checkMediaTypes rejects XML media types in any content map.
func (l *loader) checkMediaTypes() error {
	for i := range l.doc.nodes {
		n := &l.doc.nodes[i]
		if n.Kind != MappingNode {
			continue
		}
		for j, key := range n.Keys {
			if key != "content" {
				continue
			}
			content := &l.doc.nodes[l.doc.Deref(n.Children[j])]
			if content.Kind != MappingNode {
				continue
			}
			for _, mediaType := range content.Keys {
				if httputil.IsXML(mediaType) {
					return &oaserrors.UnsupportedFeatureError{
						Feature: "xml",
						Pointer: l.doc.Pointer(l.doc.Deref(n.Children[j])) + "/" + pathutil.EscapeSegment(mediaType),
						Message: fmt.Sprintf("media type %q is not supported", mediaType),
					}
				}
			}
		}
	}
	return nil
}

// resolve sets and returns the final target of a reference node.
// depth counts hops through reference chains.
func (l *loader) resolve(id NodeID, depth int) (NodeID, error) {
	n := &l.doc.nodes[id]
	if n.Ref == "" {
		return id, nil
	}
	if n.Target != NoNode {
		return n.Target, nil
	}
	if depth >= l.cfg.maxRefDepth {
		return NoNode, &oaserrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(l.cfg.maxRefDepth),
			Pointer:      l.doc.Pointer(id),
			Message:      fmt.Sprintf("reference chain through %q does not settle", n.Ref),
		}
	}
	ref, src, line := n.Ref, n.Source, n.Line

	target, err := l.locate(src, ref, line, depth)
	if err != nil {
		return NoNode, err
	}
	final, err := l.resolve(target, depth+1)
	if err != nil {
		return NoNode, err
	}
	l.doc.nodes[id].Target = final
	l.refs++
	return final, nil
}

// locate finds the node a reference string points to, loading external
// sources as needed. Intermediate references along the pointer are resolved.
func (l *loader) locate(src int, ref string, line, depth int) (NodeID, error) {
	from := l.doc.sources[src]
	file, fragment, _ := strings.Cut(ref, "#")

	refType := "local"
	target := src
	if file != "" {
		loc := resolveLocation(from, file)
		refType = "file"
		if isHTTP(loc) {
			refType = "http"
		}
		var err error
		target, err = l.loadExternal(loc, ref, refType, from, line)
		if err != nil {
			return NoNode, err
		}
	}

	key := l.doc.sources[target] + "#" + fragment
	if id, ok := l.doc.index[key]; ok {
		return id, nil
	}

	refErr := func(msg string, cause error) error {
		return &oaserrors.ReferenceError{Ref: ref, RefType: refType, Source: from, Line: line, Message: msg, Cause: cause}
	}

	segs, err := pathutil.ParsePointer(fragment)
	if err != nil {
		return NoNode, refErr("invalid pointer", err)
	}
	cur := l.doc.roots[target]
	for _, seg := range segs {
		cur, err = l.resolve(cur, depth+1)
		if err != nil {
			return NoNode, err
		}
		next, err := l.doc.step(cur, seg)
		if err != nil {
			return NoNode, refErr("target not found", err)
		}
		cur = next
	}
	l.doc.index[key] = cur
	return cur, nil
}

func (l *loader) loadExternal(loc, ref, refType, from string, line int) (int, error) {
	if src, ok := l.files[loc]; ok {
		return src, nil
	}
	refErr := func(msg string, cause error) error {
		return &oaserrors.ReferenceError{Ref: ref, RefType: refType, Source: from, Line: line, Message: msg, Cause: cause}
	}

	var data []byte
	if refType == "http" {
		if l.cfg.fetcher == nil {
			return 0, refErr("HTTP references are disabled (configure an HTTP fetcher)", nil)
		}
		body, _, err := l.cfg.fetcher(loc)
		if err != nil {
			return 0, refErr("failed to fetch", err)
		}
		if int64(len(body)) > l.cfg.maxFileSize {
			return 0, fileSizeError(loc, l.cfg.maxFileSize, int64(len(body)))
		}
		data = body
	} else {
		rel, err := filepath.Rel(l.baseDir, loc)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return 0, &oaserrors.ReferenceError{
				Ref: ref, RefType: refType, Source: from, Line: line, IsPathTraversal: true,
				Message: "file is outside the base directory",
			}
		}
		data, err = l.readFile(loc)
		if err != nil {
			var limitErr *oaserrors.ResourceLimitError
			if errors.As(err, &limitErr) {
				return 0, err
			}
			return 0, refErr("failed to load referenced file", err)
		}
	}

	src, err := l.addSource(loc, data)
	if err != nil {
		return 0, refErr("failed to parse referenced file", err)
	}
	l.cfg.logger.Debug("loaded external reference", "location", loc, "ref", ref)
	return src, nil
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// resolveLocation resolves a reference's file part against the referring source.
func resolveLocation(from, file string) string {
	if isHTTP(file) {
		return file
	}
	if isHTTP(from) {
		base, err := url.Parse(from)
		if err != nil {
			return file
		}
		rel, err := url.Parse(file)
		if err != nil {
			return file
		}
		return base.ResolveReference(rel).String()
	}
	if filepath.IsAbs(file) {
		return filepath.Clean(file)
	}
	return filepath.Join(filepath.Dir(from), filepath.FromSlash(file))
}
