package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/spf13/afero"
)

const copyBufferSize = 32 * 1024

// Progress is reported to an Observer as bytes are written.
// BytesExpected is -1 when the server does not announce a length.
type Progress struct {
	AssetID       int64
	BytesWritten  int64
	BytesExpected int64
}

type Observer func(Progress)

// Fetcher downloads assets into the cache directory.
type Fetcher struct {
	fs       afero.Fs
	client   *http.Client
	cacheDir string
}

type NewFetcherOptions struct {
	Fs         afero.Fs
	HTTPClient *http.Client
	CacheDir   string
}

func NewFetcher(opts NewFetcherOptions) *Fetcher {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Fetcher{
		fs:       opts.Fs,
		client:   opts.HTTPClient,
		cacheDir: opts.CacheDir,
	}
}

// Fs returns the filesystem the fetcher writes to.
func (f *Fetcher) Fs() afero.Fs {
	return f.fs
}

// Path returns the deterministic local path of an asset.
func (f *Fetcher) Path(sessionID int64, ref types.AssetRef) (string, error) {
	ext := ref.Extension()
	if ext == "" {
		return "", &FetchError{Kind: FetchErrorNoExtension, AssetID: ref.ID}
	}
	return filepath.Join(f.cacheDir, fmt.Sprintf("session-%d-asset-%d%s", sessionID, ref.ID, ext)), nil
}

func partPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".part")
}

// Fetch starts downloading ref. An asset that is already on disk is
// returned as a completed download without touching the network. The
// download is bound to ctx: cancelling ctx cancels the transfer.
func (f *Fetcher) Fetch(ctx context.Context, sessionID int64, ref types.AssetRef, observer Observer) (*Download, error) {
	path, err := f.Path(sessionID, ref)
	if err != nil {
		return nil, err
	}

	d := &Download{
		fetcher:  f,
		ref:      ref,
		path:     path,
		observer: observer,
		ctx:      ctx,
		done:     make(chan struct{}),
	}

	if info, err := f.fs.Stat(path); err == nil && !info.IsDir() {
		log.Debug("Asset %d already cached at %s", ref.ID, path)
		d.state = StateDone
		d.localPath = path
		close(d.done)
		return d, nil
	}

	if err := f.fs.MkdirAll(f.cacheDir, 0o755); err != nil {
		return nil, &FetchError{Kind: FetchErrorIOFailure, AssetID: ref.ID, Err: err}
	}

	log.Debug("Fetching asset %d from %s", ref.ID, ref.SourceURL)
	d.mu.Lock()
	d.start()
	d.mu.Unlock()
	return d, nil
}

// transfer copies the asset into its part file, resuming from whatever the
// part file already holds, and renames it into place when complete.
func (f *Fetcher) transfer(ctx context.Context, d *Download) error {
	id := d.ref.ID
	part := partPath(d.path)

	var offset int64
	if info, err := f.fs.Stat(part); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.ref.SourceURL, nil)
	if err != nil {
		return &FetchError{Kind: FetchErrorNetwork, AssetID: id, Err: err}
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return transferError(ctx, id, FetchErrorNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		log.Debug("Resuming asset %d at byte %d", id, offset)
	case resp.StatusCode == http.StatusOK:
		offset = 0
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		// the part file no longer matches the source, start over next time
		f.fs.Remove(part)
		return &FetchError{Kind: FetchErrorNetwork, AssetID: id, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	default:
		return &FetchError{Kind: FetchErrorNetwork, AssetID: id, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	expected := int64(-1)
	if resp.ContentLength >= 0 {
		expected = offset + resp.ContentLength
	}

	file, err := f.fs.OpenFile(part, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return &FetchError{Kind: FetchErrorIOFailure, AssetID: id, Err: err}
	}
	if err := file.Truncate(offset); err != nil {
		file.Close()
		return &FetchError{Kind: FetchErrorIOFailure, AssetID: id, Err: err}
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return &FetchError{Kind: FetchErrorIOFailure, AssetID: id, Err: err}
	}

	written := offset
	d.report(Progress{AssetID: id, BytesWritten: written, BytesExpected: expected})
	buf := make([]byte, copyBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				file.Close()
				return &FetchError{Kind: FetchErrorIOFailure, AssetID: id, Err: err}
			}
			written += int64(n)
			d.report(Progress{AssetID: id, BytesWritten: written, BytesExpected: expected})
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			file.Close()
			return transferError(ctx, id, FetchErrorNetwork, readErr)
		}
	}

	if err := file.Close(); err != nil {
		return &FetchError{Kind: FetchErrorIOFailure, AssetID: id, Err: err}
	}
	if expected >= 0 && written != expected {
		return &FetchError{Kind: FetchErrorNetwork, AssetID: id, Err: fmt.Errorf("short body: got %d of %d bytes", written, expected)}
	}
	if err := f.fs.Rename(part, d.path); err != nil {
		return &FetchError{Kind: FetchErrorIOFailure, AssetID: id, Err: err}
	}

	log.Debug("Fetched asset %d to %s (%d bytes)", id, d.path, written)
	return nil
}

func transferError(ctx context.Context, id int64, kind FetchErrorKind, err error) error {
	if ctx.Err() != nil {
		return &FetchError{Kind: FetchErrorCancelled, AssetID: id, Err: ctx.Err()}
	}
	return &FetchError{Kind: kind, AssetID: id, Err: err}
}
