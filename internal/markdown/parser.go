package markdown

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"bookrag/internal/domain"
)

// Document is a parsed Markdown source file with its front matter.
type Document struct {
	FilePath    string
	Content     string
	Title       string
	ChapterID   string
	ModuleID    string
	Topics      []string
	FrontMatter map[string]any
}

var h2Re = regexp.MustCompile(`(?m)^##\s+(.+)$`)

// Sections splits the document on H2 headers and keeps the spans whose
// titles normalize to one of the standard section types, in document order.
func (d *Document) Sections() []domain.Section {
	matches := h2Re.FindAllStringSubmatchIndex(d.Content, -1)
	var sections []domain.Section
	for i, m := range matches {
		title := strings.TrimSpace(d.Content[m[2]:m[3]])
		start := m[1]
		end := len(d.Content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sectionType := normalizeSectionType(title)
		if sectionType == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Type:    sectionType,
			Content: strings.TrimSpace(d.Content[start:end]),
		})
	}
	return sections
}

// normalizeSectionType maps an H2 title onto one of the four standard
// section types, or "" when the title matches none.
func normalizeSectionType(title string) string {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "concept", "foundation", "introduction"):
		return "concepts"
	case containsAny(t, "architecture", "design", "structure"):
		return "architectures"
	case containsAny(t, "algorithm", "implementation", "technique"):
		return "algorithms"
	case containsAny(t, "real-world", "practical", "application", "consideration"):
		return "real-world"
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Parser reads Markdown documents from a docs root directory.
type Parser struct {
	root string
}

func NewParser(root string) (*Parser, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("docs root does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs root is not a directory: %s", root)
	}
	return &Parser{root: root}, nil
}

// ParseAll walks the docs root for *.md files, skipping index files.
// Individual parse failures are logged as warnings, not fatal.
func (p *Parser) ParseAll() ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") || d.Name() == "index.md" {
			return nil
		}
		doc, err := p.ParseFile(path)
		if err != nil {
			log.Printf("warning: failed to parse %s: %v", path, err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ParseFile parses a single Markdown document.
func (p *Parser) ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = path
	}

	content, meta, err := splitFrontMatter(string(data))
	if err != nil {
		return Document{}, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	doc := Document{
		FilePath:    filepath.ToSlash(rel),
		Content:     content,
		ChapterID:   stem,
		ModuleID:    extractModuleID(rel),
		Title:       stem,
		FrontMatter: meta,
	}
	if title, ok := meta["title"].(string); ok && title != "" {
		doc.Title = title
	}
	if raw, ok := meta["topics"].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				doc.Topics = append(doc.Topics, s)
			}
		}
	}
	return doc, nil
}

// extractModuleID finds the first module-* path element.
func extractModuleID(rel string) string {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, "module-") {
			return part
		}
	}
	return "unknown-module"
}

// splitFrontMatter separates a leading YAML front-matter block, delimited by
// --- fences, from the document body.
func splitFrontMatter(raw string) (content string, meta map[string]any, err error) {
	meta = map[string]any{}
	if !strings.HasPrefix(raw, "---\n") && !strings.HasPrefix(raw, "---\r\n") {
		return raw, meta, nil
	}
	rest := raw[strings.Index(raw, "\n")+1:]
	endIdx := strings.Index(rest, "\n---")
	if endIdx < 0 {
		return raw, meta, nil
	}
	block := rest[:endIdx]
	body := rest[endIdx+len("\n---"):]
	body = strings.TrimPrefix(body, "\r")
	body = strings.TrimPrefix(body, "\n")
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return "", nil, fmt.Errorf("front matter: %w", err)
	}
	return body, meta, nil
}
