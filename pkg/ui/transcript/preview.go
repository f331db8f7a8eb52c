package transcript

import (
	"context"
	"errors"
	"fmt"

	"meshchat/pkg/extract"
	"meshchat/pkg/stl"

	tea "charm.land/bubbletea/v2"
)

type previewState int

const (
	previewIdle previewState = iota
	previewLoading
	previewLoaded
	previewFailed
)

// preview is the loaded state of one slot. Only the active slot holds a
// geometry.
type preview struct {
	state    previewState
	prepared stl.Prepared
	err      error
	// gen discards results from loads that were superseded.
	gen int
}

type previewLoadedMsg struct {
	slotID   string
	gen      int
	prepared stl.Prepared
	err      error
}

// loader turns a source into a prepared geometry.
type loader struct {
	fetcher *stl.Fetcher
	opts    stl.Options
}

func (l loader) load(ctx context.Context, src extract.Source) (stl.Prepared, error) {
	var (
		g   *stl.Geometry
		err error
	)
	switch src.Kind {
	case extract.KindInlineText:
		g, err = stl.ParseASCII(src.Body)
	case extract.KindURL:
		if l.fetcher == nil {
			return stl.Prepared{}, fmt.Errorf("no fetcher for %s", src.Address)
		}
		g, err = l.fetcher.Fetch(ctx, src.Address)
	default:
		return stl.Prepared{}, fmt.Errorf("unknown source kind %q", src.Kind)
	}
	if err != nil {
		return stl.Prepared{}, err
	}
	return stl.Prepare(g, l.opts), nil
}

func (l loader) cmd(slotID string, gen int, src extract.Source) tea.Cmd {
	return func() tea.Msg {
		p, err := l.load(context.Background(), src)
		return previewLoadedMsg{slotID: slotID, gen: gen, prepared: p, err: err}
	}
}

func previewError(err error) string {
	if errors.Is(err, stl.ErrNoTriangles) || errors.Is(err, stl.ErrTruncated) {
		return "Invalid or incomplete STL."
	}
	return "Preview failed: " + err.Error()
}

func formatStats(p stl.Prepared) string {
	size := p.Bounds.Size()
	return fmt.Sprintf("Triangles: %d | Size: %.3g x %.3g x %.3g | Scale: %.4g",
		p.Geometry.TriangleCount(), size[0], size[1], size[2], p.Scale)
}
