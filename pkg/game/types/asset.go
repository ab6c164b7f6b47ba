package types

import (
	"net/url"
	"path"
	"strings"
)

// MediaKind distinguishes still images from streamed video.
type MediaKind int

const (
	MediaKindImage MediaKind = iota
	MediaKindVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindImage:
		return "image"
	case MediaKindVideo:
		return "video"
	}
	return "unknown"
}

// AssetRef references a media asset declared by the authority. Cached and
// LocalPath are local annotations and are never sent back to the authority.
type AssetRef struct {
	// ID increases monotonically within a session
	ID        int64  `json:"id"`
	SourceURL string `json:"sourceUrl"`
	Cached    bool   `json:"cached,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
}

// Extension returns the file extension of the source URL including the
// leading dot, or "" when the URL path has none.
func (a AssetRef) Extension() string {
	p := a.SourceURL
	if u, err := url.Parse(a.SourceURL); err == nil {
		p = u.Path
	}
	ext := path.Ext(p)
	if ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// Kind returns MediaKindImage for gifs and MediaKindVideo for everything else.
func (a AssetRef) Kind() MediaKind {
	if a.Extension() == ".gif" {
		return MediaKindImage
	}
	return MediaKindVideo
}
