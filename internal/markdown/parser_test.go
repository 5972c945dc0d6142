package markdown

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const chapterDoc = `---
title: ROS 2 Fundamentals
topics:
  - ros2
  - dds
---
# ROS 2 Fundamentals

## Core Concepts

ROS 2 organizes software into nodes.

## System Architecture

Nodes exchange messages over DDS.

## Further Reading

Links and references.
`

func TestParseFile(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "module-01-ros2/ch1-fundamentals.md", chapterDoc)

	p, err := NewParser(root)
	require.NoError(t, err)

	doc, err := p.ParseFile(filepath.Join(root, "module-01-ros2/ch1-fundamentals.md"))
	require.NoError(t, err)

	assert.Equal(t, "module-01-ros2/ch1-fundamentals.md", doc.FilePath)
	assert.Equal(t, "ch1-fundamentals", doc.ChapterID)
	assert.Equal(t, "module-01-ros2", doc.ModuleID)
	assert.Equal(t, "ROS 2 Fundamentals", doc.Title, "front matter title wins over the file stem")
	assert.Equal(t, []string{"ros2", "dds"}, doc.Topics)
	assert.NotContains(t, doc.Content, "title:", "front matter is stripped from the body")
}

func TestParseFileWithoutFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes.md", "# Notes\n\nJust a body.\n")

	p, err := NewParser(root)
	require.NoError(t, err)
	doc, err := p.ParseFile(filepath.Join(root, "notes.md"))
	require.NoError(t, err)

	assert.Equal(t, "notes", doc.Title, "file stem is the fallback title")
	assert.Equal(t, "unknown-module", doc.ModuleID)
	assert.Contains(t, doc.Content, "Just a body.")
}

func TestParseAllSkipsIndexFiles(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "module-01-ros2/index.md", "# Index\n")
	writeDoc(t, root, "module-01-ros2/ch1.md", chapterDoc)
	writeDoc(t, root, "module-01-ros2/readme.txt", "not markdown")

	p, err := NewParser(root)
	require.NoError(t, err)
	docs, err := p.ParseAll()
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "ch1", docs[0].ChapterID)
}

func TestNewParserRequiresDirectory(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	root := t.TempDir()
	file := filepath.Join(root, "file.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewParser(file)
	assert.Error(t, err)
}

func TestSections(t *testing.T) {
	doc := Document{Content: "intro text\n\n## Core Concepts\n\nconcept body\n\n## System Architecture\n\narch body\n\n## Quiz\n\ndropped\n\n## Practical Applications\n\napp body\n"}
	sections := doc.Sections()

	require.Len(t, sections, 3, "headings outside the known types are dropped")
	assert.Equal(t, "concepts", sections[0].Type)
	assert.Equal(t, "concept body", sections[0].Content)
	assert.Equal(t, "architectures", sections[1].Type)
	assert.Equal(t, "arch body", sections[1].Content)
	assert.Equal(t, "real-world", sections[2].Type)
	assert.Equal(t, "app body", sections[2].Content)
}

func TestSectionsNone(t *testing.T) {
	doc := Document{Content: "no headings at all"}
	assert.Empty(t, doc.Sections())
}

func TestNormalizeSectionType(t *testing.T) {
	cases := map[string]string{
		"Core Concepts":             "concepts",
		"Introduction":              "concepts",
		"Foundations of Control":    "concepts",
		"System Architecture":       "architectures",
		"Design Patterns":           "architectures",
		"Path Planning Algorithms":  "algorithms",
		"Implementation Details":    "algorithms",
		"Real-World Examples":       "real-world",
		"Practical Considerations":  "real-world",
		"Summary":                   "",
		"Exercises":                 "",
	}
	for title, want := range cases {
		assert.Equal(t, want, normalizeSectionType(title), "title %q", title)
	}
}

func TestExtractModuleID(t *testing.T) {
	assert.Equal(t, "module-02-nav", extractModuleID("docs/module-02-nav/ch3.md"))
	assert.Equal(t, "unknown-module", extractModuleID("misc/ch3.md"))
}
