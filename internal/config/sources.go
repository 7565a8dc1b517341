package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceEnv     SourceKind = "env"
	SourceFile    SourceKind = "file"
)

// Source is where an effective value came from.
type Source struct {
	Kind SourceKind
	// Name is the variable for env sources.
	Name   string
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		if s.Line > 0 {
			return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
		}
		return s.File
	case SourceEnv:
		return "$" + s.Name
	}
	return string(s.Kind)
}

func fileSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

func rootMapping(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	return doc
}

// valueSources maps every dotted key path in doc to the position of its
// value. Sequences are recorded as a whole.
func valueSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	var walk func(n *yaml.Node, prefix string)
	walk = func(n *yaml.Node, prefix string) {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			path := key.Value
			if prefix != "" {
				path = prefix + "." + path
			}
			out[path] = fileSource(file, val)
			if val.Kind == yaml.MappingNode {
				walk(val, path)
			}
		}
	}
	if root := rootMapping(doc); root != nil {
		walk(root, "")
	}
	return out
}

type includeRef struct {
	value  string
	source Source
}

// includeRefs returns the entries of the top-level include key, which may
// be a string or a list of strings.
func includeRefs(doc *yaml.Node, file string) []includeRef {
	root := rootMapping(doc)
	if root == nil {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		var refs []includeRef
		for _, item := range items {
			if item.Kind == yaml.ScalarNode {
				refs = append(refs, includeRef{value: item.Value, source: fileSource(file, item)})
			}
		}
		return refs
	}
	return nil
}
