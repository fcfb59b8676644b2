package cli

import (
	"context"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
)

func sampleGraph() *graph.Graph {
	return pipeline.BuildGraph(context.Background(), flow.SampleRows(), flow.NewClassifier(flow.DefaultVocabulary()))
}

func TestSuggestNodes(t *testing.T) {
	g := sampleGraph()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"subsequence", "ebt", "EBITDA"},
		{"case insensitive", "ebitda", "EBITDA"},
		{"transposed letters", "EBIDTA", "EBITDA"},
		{"cyrillic prefix", "выруч", "Выручка"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestNodes(g, tt.query, 3)
			if len(got) == 0 || got[0] != tt.want {
				t.Errorf("suggestNodes(%q) = %v, want %q first", tt.query, got, tt.want)
			}
		})
	}

	if got := suggestNodes(g, "zzzzzzzzzzzz", 3); len(got) != 0 {
		t.Errorf("unrelated query suggested %v", got)
	}
	if got := suggestNodes(g, "а", 2); len(got) > 2 {
		t.Errorf("suggestNodes returned %d names, limit 2", len(got))
	}
}

func TestResolveNode(t *testing.T) {
	g := sampleGraph()

	if err := resolveNode(g, "EBITDA"); err != nil {
		t.Errorf("resolveNode(EBITDA) = %v", err)
	}

	err := resolveNode(g, "EBIDTA")
	if !ferrors.Is(err, ferrors.ErrCodeNodeNotFound) {
		t.Fatalf("resolveNode(EBIDTA) = %v, want NODE_NOT_FOUND", err)
	}
	if !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("no suggestion in %q", err)
	}

	if err := resolveNode(g, "   "); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("blank name = %v, want INVALID_INPUT", err)
	}
}

func TestQuoteAll(t *testing.T) {
	if got := quoteAll([]string{"a", "b"}); got != `"a", "b"` {
		t.Errorf("quoteAll = %q", got)
	}
}
