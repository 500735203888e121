package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erraggy/oasbind/internal/pathutil"
)

// NodeID addresses a node in a Document's arena.
type NodeID int

// NoNode is the NodeID returned when a lookup finds nothing.
const NoNode NodeID = -1

// NodeKind is the shape of a node.
type NodeKind uint8

const (
	// ScalarNode holds a string, number, boolean or null.
	ScalarNode NodeKind = iota
	// MappingNode holds ordered key/value pairs.
	MappingNode
	// SequenceNode holds ordered items.
	SequenceNode
)

// Scalar tags, as reported by the YAML decoder.
const (
	TagNull  = "!!null"
	TagBool  = "!!bool"
	TagInt   = "!!int"
	TagFloat = "!!float"
	TagStr   = "!!str"
)

// Node is one entry of the arena.
type Node struct {
	Kind NodeKind
	// Tag is the resolved scalar tag (TagStr, TagInt, ...). Empty for collections.
	Tag string
	// Value is the raw scalar text.
	Value string
	// Keys holds mapping keys, parallel to Children.
	Keys []string
	// Children holds mapping values or sequence items.
	Children []NodeID

	// Source is the index of the file this node came from (see Document.Source).
	Source int
	// Pointer is the node's JSON pointer fragment inside its source ("#/paths/~1pets").
	Pointer string
	Line    int
	Column  int

	// Ref is the $ref text when this node is a reference object.
	Ref string
	// Target is the resolved, non-reference node a reference points to.
	// It is NoNode for ordinary nodes.
	Target NodeID
}

// IsRef reports whether the node is a reference object.
func (n *Node) IsRef() bool {
	return n.Ref != ""
}

// Document is an immutable, fully resolved specification document.
// It is safe for concurrent use by multiple goroutines.
type Document struct {
	nodes   []Node
	root    NodeID
	sources []string
	// roots holds the root node of each source, parallel to sources.
	roots []NodeID
	// index maps "source#pointer" to the resolved node, for every reference
	// target seen during loading.
	index map[string]NodeID
	// Version is the document's openapi field.
	Version string
}

// Root returns the top-level mapping node.
func (d *Document) Root() NodeID {
	return d.root
}

// Len returns the number of nodes in the arena.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns the node stored at id. The returned node must not be modified.
func (d *Document) Node(id NodeID) *Node {
	return &d.nodes[id]
}

// Valid reports whether id addresses a node of this document.
func (d *Document) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}

// Source returns the file name or URL a source index refers to.
func (d *Document) Source(idx int) string {
	if idx < 0 || idx >= len(d.sources) {
		return ""
	}
	return d.sources[idx]
}

// Sources returns every loaded file, the root document first.
func (d *Document) Sources() []string {
	out := make([]string, len(d.sources))
	copy(out, d.sources)
	return out
}

// Deref returns the target of a reference node, or id itself.
func (d *Document) Deref(id NodeID) NodeID {
	if !d.Valid(id) {
		return NoNode
	}
	if t := d.nodes[id].Target; t != NoNode {
		return t
	}
	return id
}

// Raw returns the child stored under key in a mapping without following a
// reference in the child. The mapping itself is dereferenced first.
func (d *Document) Raw(id NodeID, key string) NodeID {
	id = d.Deref(id)
	if id == NoNode {
		return NoNode
	}
	n := &d.nodes[id]
	if n.Kind != MappingNode {
		return NoNode
	}
	for i, k := range n.Keys {
		if k == key {
			return n.Children[i]
		}
	}
	return NoNode
}

// Get returns the dereferenced child stored under key, or NoNode.
func (d *Document) Get(id NodeID, key string) NodeID {
	return d.Deref(d.Raw(id, key))
}

// Has reports whether a mapping contains key.
func (d *Document) Has(id NodeID, key string) bool {
	return d.Raw(id, key) != NoNode
}

// Kind returns the kind of the dereferenced node. A missing node reports
// as a scalar.
func (d *Document) Kind(id NodeID) NodeKind {
	id = d.Deref(id)
	if id == NoNode {
		return ScalarNode
	}
	return d.nodes[id].Kind
}

// IsNull reports whether id is missing or an explicit null.
func (d *Document) IsNull(id NodeID) bool {
	id = d.Deref(id)
	return id == NoNode || (d.nodes[id].Kind == ScalarNode && d.nodes[id].Tag == TagNull)
}

// String returns the scalar text of a string-like node.
func (d *Document) String(id NodeID) (string, bool) {
	id = d.Deref(id)
	if id == NoNode {
		return "", false
	}
	n := &d.nodes[id]
	if n.Kind != ScalarNode || n.Tag == TagNull {
		return "", false
	}
	return n.Value, true
}

// Bool returns the value of a boolean scalar.
func (d *Document) Bool(id NodeID) (value, ok bool) {
	id = d.Deref(id)
	if id == NoNode {
		return false, false
	}
	n := &d.nodes[id]
	if n.Kind != ScalarNode || n.Tag != TagBool {
		return false, false
	}
	b, err := strconv.ParseBool(n.Value)
	return b, err == nil
}

// Number returns the value of an integer or float scalar.
func (d *Document) Number(id NodeID) (float64, bool) {
	id = d.Deref(id)
	if id == NoNode {
		return 0, false
	}
	n := &d.nodes[id]
	if n.Kind != ScalarNode || (n.Tag != TagInt && n.Tag != TagFloat) {
		return 0, false
	}
	switch v := scalarValue(n).(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Int returns the value of an integer scalar.
func (d *Document) Int(id NodeID) (int64, bool) {
	id = d.Deref(id)
	if id == NoNode {
		return 0, false
	}
	n := &d.nodes[id]
	if n.Kind != ScalarNode || n.Tag != TagInt {
		return 0, false
	}
	v, ok := scalarValue(n).(int64)
	return v, ok
}

// Items returns the items of a sequence node.
func (d *Document) Items(id NodeID) []NodeID {
	id = d.Deref(id)
	if id == NoNode || d.nodes[id].Kind != SequenceNode {
		return nil
	}
	return d.nodes[id].Children
}

// Keys returns the keys of a mapping node in document order.
func (d *Document) Keys(id NodeID) []string {
	id = d.Deref(id)
	if id == NoNode || d.nodes[id].Kind != MappingNode {
		return nil
	}
	return d.nodes[id].Keys
}

// Pointer returns the absolute location of a node, "file#/json/pointer".
func (d *Document) Pointer(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	n := &d.nodes[id]
	if n.Source == 0 {
		return n.Pointer
	}
	return d.sources[n.Source] + n.Pointer
}

// Location returns "file:line:column" for a node.
func (d *Document) Location(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	n := &d.nodes[id]
	return fmt.Sprintf("%s:%d:%d", d.sources[n.Source], n.Line, n.Column)
}

const maxValueDepth = 64

// Value converts a node subtree into plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any. References are followed.
// Subtrees deeper than 64 levels are cut off as nil.
func (d *Document) Value(id NodeID) any {
	return d.value(id, 0)
}

func (d *Document) value(id NodeID, depth int) any {
	id = d.Deref(id)
	if id == NoNode || depth > maxValueDepth {
		return nil
	}
	n := &d.nodes[id]
	switch n.Kind {
	case MappingNode:
		m := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			m[k] = d.value(n.Children[i], depth+1)
		}
		return m
	case SequenceNode:
		s := make([]any, len(n.Children))
		for i, c := range n.Children {
			s[i] = d.value(c, depth+1)
		}
		return s
	default:
		return scalarValue(n)
	}
}

func scalarValue(n *Node) any {
	switch n.Tag {
	case TagNull:
		return nil
	case TagBool:
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return b
		}
	case TagInt:
		if i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	case TagFloat:
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	}
	return n.Value
}

// ResolveRef resolves a reference string as seen from the node at id,
// without loading anything new. A bare name with no '#' or '/' is not
// accepted here; callers expand shorthand forms themselves.
func (d *Document) ResolveRef(from NodeID, ref string) (NodeID, error) {
	if !d.Valid(from) {
		return NoNode, fmt.Errorf("invalid node %d", from)
	}
	src := d.nodes[from].Source
	file, fragment, _ := strings.Cut(ref, "#")
	if file != "" {
		key := resolveLocation(d.sources[src], file)
		idx := -1
		for i, s := range d.sources {
			if s == key {
				idx = i
				break
			}
		}
		if idx < 0 {
			return NoNode, fmt.Errorf("document %q is not loaded", file)
		}
		src = idx
	}
	if id, ok := d.index[d.sources[src]+"#"+fragment]; ok {
		return d.Deref(id), nil
	}
	segs, err := pathutil.ParsePointer(fragment)
	if err != nil {
		return NoNode, err
	}
	cur := d.sourceRoot(src)
	for _, seg := range segs {
		next, err := d.step(cur, seg)
		if err != nil {
			return NoNode, err
		}
		cur = d.Deref(next)
	}
	return cur, nil
}

func (d *Document) sourceRoot(src int) NodeID {
	if src < 0 || src >= len(d.roots) {
		return NoNode
	}
	return d.roots[src]
}

// step moves from a dereferenced collection node to its child named seg.
func (d *Document) step(cur NodeID, seg string) (NodeID, error) {
	if cur == NoNode {
		return NoNode, fmt.Errorf("segment %q: no such node", seg)
	}
	n := &d.nodes[cur]
	switch n.Kind {
	case MappingNode:
		for i, k := range n.Keys {
			if k == seg {
				return n.Children[i], nil
			}
		}
		return NoNode, fmt.Errorf("key %q not found", seg)
	case SequenceNode:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(n.Children) {
			return NoNode, fmt.Errorf("index %q out of range (length %d)", seg, len(n.Children))
		}
		return n.Children[i], nil
	default:
		return NoNode, fmt.Errorf("segment %q: cannot descend into a scalar", seg)
	}
}
