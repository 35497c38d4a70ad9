package compiler

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/btlib/internal/logging"
	"github.com/aretw0/btlib/pkg/domain"
	"golang.org/x/net/html/charset"
)

// rootIDOffset keeps the leading digit of every tree id non-zero.
const rootIDOffset = 10

// Parser converts behavior tree definitions (nested XML elements) into a Tree.
type Parser struct {
	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets the logger used for non-fatal diagnostics.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	return p
}

// ParseFile reads a definition file. Only .xml files are accepted.
func (p *Parser) ParseFile(path string) (*domain.Tree, error) {
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		return nil, fmt.Errorf("%w: must be an xml file, got %s", domain.ErrFormat, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	return p.Parse(data)
}

// Parse builds a Tree from definition text. Every BehaviorTree element is a
// root; the k-th root gets id k+10 and every other node appends its
// zero-padded sibling index to its parent's id. More than one root is
// accepted with a warning.
func (p *Parser) Parse(data []byte) (*domain.Tree, error) {
	doc, err := readElements(data)
	if err != nil {
		return nil, err
	}

	var roots []*element
	doc.walk(func(e *element) bool {
		if e.name == domain.NameBehaviorTree {
			roots = append(roots, e)
			return false
		}
		return true
	})
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no %s element found", domain.ErrStructural, domain.NameBehaviorTree)
	}
	if len(roots) > 1 {
		p.logger.Warn("More than one BehaviorTree found", "count", len(roots))
	}

	b := domain.NewTreeBuilder()
	for k, root := range roots {
		if err := addSubtree(b, root, domain.NodeID(k+rootIDOffset), nil, 0); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func addSubtree(b *domain.TreeBuilder, e *element, id domain.NodeID, parent *domain.NodeID, order int) error {
	n := domain.Node{
		ID:         id,
		Name:       e.name,
		Category:   categoryOf(e, parent == nil),
		Attributes: e.attrs,
		Line:       e.line,
	}
	if err := b.AddNode(n); err != nil {
		return err
	}
	if parent != nil {
		if err := b.AddEdge(domain.Edge{Parent: *parent, Child: id, Order: order}); err != nil {
			return err
		}
	}

	width := digits(len(e.children))
	for i, child := range e.children {
		if child.name == domain.NameBehaviorTree {
			return fmt.Errorf("%w: nested %s at line %d", domain.ErrStructural, domain.NameBehaviorTree, child.line)
		}
		childID, ok := appendDigits(id, uint64(i), width)
		if !ok {
			return fmt.Errorf("%w: node id overflow below %d at line %d", domain.ErrStructural, id, child.line)
		}
		if err := addSubtree(b, child, childID, &id, i); err != nil {
			return err
		}
	}
	return nil
}

func categoryOf(e *element, isRoot bool) domain.Category {
	switch {
	case isRoot:
		return domain.CategoryRoot
	case e.name == domain.NameSubTree:
		return domain.CategorySubtree
	default:
		return domain.CategoryAuto
	}
}

// digits returns the number of decimal digits needed to write n (n >= 1).
func digits(n int) int {
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

// appendDigits returns id * 10^width + index, reporting false on overflow.
func appendDigits(id domain.NodeID, index uint64, width int) (domain.NodeID, bool) {
	v := uint64(id)
	for i := 0; i < width; i++ {
		hi, lo := bits.Mul64(v, 10)
		if hi != 0 {
			return 0, false
		}
		v = lo
	}
	sum, carry := bits.Add64(v, index, 0)
	if carry != 0 {
		return 0, false
	}
	return domain.NodeID(sum), true
}

// element is a minimal DOM node: only tag elements are kept, text and
// comments are dropped.
type element struct {
	name     string
	attrs    map[string]string
	line     int
	parent   *element
	children []*element
}

// walk visits descendants in document order; fn returns false to skip the
// subtree below an element.
func (e *element) walk(fn func(*element) bool) {
	for _, c := range e.children {
		if fn(c) {
			c.walk(fn)
		}
	}
}

func readElements(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Definitions may declare any IANA charset (e.g. ISO-8859-1).
	dec.CharsetReader = charset.NewReaderLabel
	doc := &element{}
	cur := doc
	for {
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed definition: %v", domain.ErrFormat, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			e := &element{
				name:   t.Name.Local,
				line:   line,
				parent: cur,
			}
			if len(t.Attr) > 0 {
				e.attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					e.attrs[a.Name.Local] = a.Value
				}
			}
			cur.children = append(cur.children, e)
			cur = e
		case xml.EndElement:
			cur = cur.parent
		}
	}
	if cur != doc {
		return nil, fmt.Errorf("%w: unexpected end of definition", domain.ErrFormat)
	}
	if len(doc.children) == 0 {
		return nil, fmt.Errorf("%w: definition has no elements", domain.ErrFormat)
	}
	return doc, nil
}
