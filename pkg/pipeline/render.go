package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/matzehuels/flowsankey/pkg/buildinfo"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/httputil"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/render/nodelink"
	"github.com/matzehuels/flowsankey/pkg/render/sink"
	"github.com/matzehuels/flowsankey/pkg/scene"
)

// RenderFormat serializes one artifact. The DOT format describes the graph
// structure rather than the scene.
func RenderFormat(ctx context.Context, format string, g *graph.Graph, sc *scene.Scene, s override.ReportSettings, scale float64, pngOpts ...sink.PNGOption) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch format {
	case FormatSVG:
		return sink.RenderSVG(sc, sink.WithIDs()), nil
	case FormatPNG:
		data, err := sink.RenderPNG(sc, append([]sink.PNGOption{sink.WithScale(scale)}, pngOpts...)...)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeRenderFailed, err, "render png")
		}
		return data, nil
	case FormatJSON:
		data, err := sink.RenderJSON(sc, sink.WithGenerator("flowsankey "+buildinfo.Version))
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeRenderFailed, err, "render json")
		}
		return data, nil
	case FormatDOT:
		return []byte(nodelink.ToDOT(g, nodelink.Options{Values: true, Align: s.Align, Settings: &s})), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// ImageLoader resolves data URLs and local files directly and downloads
// http(s) sources through f.
func ImageLoader(ctx context.Context, f *httputil.Fetcher) sink.ImageLoader {
	return func(src string) (image.Image, error) {
		if f == nil || !httputil.IsRemote(src) {
			return sink.LoadImage(src)
		}
		data, err := f.Fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		return sink.DecodeImage(data)
	}
}
