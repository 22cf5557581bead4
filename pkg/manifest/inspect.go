package manifest

import (
	"fmt"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
)

// PlaylistType distinguishes master playlists from media playlists.
type PlaylistType string

const (
	PlaylistMultivariant PlaylistType = "multivariant"
	PlaylistMedia        PlaylistType = "media"
)

// Summary describes a parsed playlist. It is used for diagnostics only and
// never influences how a playlist is rewritten.
type Summary struct {
	Type           PlaylistType
	Variants       int
	MaxBandwidth   int
	Segments       int
	MediaSequence  int
	TargetDuration int
}

// Inspect parses playlist text and summarises its structure.
func Inspect(text []byte) (Summary, error) {
	pl, err := playlist.Unmarshal(text)
	if err != nil {
		return Summary{}, fmt.Errorf("parsing playlist: %w", err)
	}

	switch p := pl.(type) {
	case *playlist.Multivariant:
		s := Summary{Type: PlaylistMultivariant, Variants: len(p.Variants)}
		for _, v := range p.Variants {
			if v != nil && int(v.Bandwidth) > s.MaxBandwidth {
				s.MaxBandwidth = int(v.Bandwidth)
			}
		}
		return s, nil
	case *playlist.Media:
		return Summary{
			Type:           PlaylistMedia,
			Segments:       len(p.Segments),
			MediaSequence:  int(p.MediaSequence),
			TargetDuration: int(p.TargetDuration),
		}, nil
	default:
		return Summary{}, fmt.Errorf("unsupported playlist type %T", pl)
	}
}
