package sink

import (
	"encoding/json"

	"github.com/matzehuels/flowsankey/pkg/scene"
)

// JSONVersion is the version of the JSON scene document.
const JSONVersion = 1

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent    bool
	generator string
}

// WithIndent pretty-prints the document.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// WithGenerator records the producing program and version.
func WithGenerator(name string) JSONOption { return func(r *jsonRenderer) { r.generator = name } }

type jsonOutput struct {
	Version   int          `json:"version"`
	Generator string       `json:"generator,omitempty"`
	Scene     *scene.Scene `json:"scene"`
}

// RenderJSON writes sc wrapped in a versioned envelope.
func RenderJSON(sc *scene.Scene, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{Version: JSONVersion, Generator: r.generator, Scene: sc}
	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// ReadJSON decodes a document written by [RenderJSON].
func ReadJSON(data []byte) (*scene.Scene, error) {
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.Scene == nil {
		out.Scene = &scene.Scene{}
	}
	return out.Scene, nil
}
