package extractor

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

const (
	maxSyntaxErrors = 50
	maxTreeDepth    = 1000
	functionQuery   = `(function_item name: (identifier) @name) @fn`
)

// SyntaxError is an ERROR or MISSING node found by the parser.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// FunctionSpan locates one function item in a parsed file.
type FunctionSpan struct {
	Name      string
	StartLine int
	EndLine   int
}

// Lines is the inclusive line count of the span.
func (f FunctionSpan) Lines() int {
	return f.EndLine - f.StartLine + 1
}

// SyntaxReport summarises one parsed file.
type SyntaxReport struct {
	Errors    []SyntaxError
	Functions []FunctionSpan
}

// Extractor parses source files with tree-sitter to collect syntax metrics.
type Extractor struct {
	lang     *sitter.Language
	langName string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	switch lang {
	case "rust":
		return &Extractor{lang: rust.GetLanguage(), langName: lang}, nil
	default:
		return nil, errors.Newf("unsupported language: %s", lang)
	}
}

// Analyze parses src and reports syntax errors and function spans.
func (e *Extractor) Analyze(ctx context.Context, src []byte) (*SyntaxReport, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	report := &SyntaxReport{}
	collectSyntaxErrors(root, src, &report.Errors, 0)

	query, err := sitter.NewQuery([]byte(functionQuery), e.lang)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create query")
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var span FunctionSpan
		for _, c := range m.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "name":
				span.Name = c.Node.Content(src)
			case "fn":
				span.StartLine = int(c.Node.StartPoint().Row) + 1
				span.EndLine = int(c.Node.EndPoint().Row) + 1
			}
		}
		if span.Name != "" {
			report.Functions = append(report.Functions, span)
		}
	}

	return report, nil
}

func collectSyntaxErrors(node *sitter.Node, src []byte, out *[]SyntaxError, depth int) {
	if node == nil || depth > maxTreeDepth || len(*out) >= maxSyntaxErrors {
		return
	}

	if node.IsError() || node.IsMissing() {
		p := node.StartPoint()
		msg := "syntax error"
		if node.IsMissing() {
			msg = fmt.Sprintf("missing %s", node.Type())
		} else if text := node.Content(src); text != "" && len(text) < 50 {
			msg = fmt.Sprintf("unexpected %q", text)
		}
		*out = append(*out, SyntaxError{
			Line:    int(p.Row) + 1,
			Column:  int(p.Column),
			Message: msg,
		})
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectSyntaxErrors(node.Child(i), src, out, depth+1)
	}
}
