package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kkdai/youtube/v2"
	"github.com/vm-affekt/ytmux/internal/logging"
)

const (
	// DefaultChunkSize is the Range request size used when none is configured.
	DefaultChunkSize int64 = 10_000_000
	userAgent              = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
)

// ErrUnexpectedStatusCode is returned on unexpected HTTP status codes
type ErrUnexpectedStatusCode int

func (err ErrUnexpectedStatusCode) Error() string {
	return fmt.Sprintf("unexpected status code: %d", int(err))
}

// openStream returns the stream and the total size for a format.
// The body is fed from a goroutine; closing it stops the transfer at the next chunk write.
func (s *Service) openStream(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	streamURL, err := s.ytClient.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	r, w := io.Pipe()
	contentLength := format.ContentLength

	if contentLength == 0 {
		// some videos don't have length information
		contentLength, err = s.downloadOnce(ctx, req, w)
		if err != nil {
			return nil, 0, err
		}
	} else {
		// we have length information, let's download by chunks!
		go s.downloadChunked(ctx, req, w, contentLength)
	}

	return r, contentLength, nil
}

func (s *Service) downloadOnce(ctx context.Context, req *http.Request, w *io.PipeWriter) (int64, error) {
	resp, err := s.httpDo(ctx, req)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return 0, ErrUnexpectedStatusCode(resp.StatusCode)
	}

	go func() {
		defer resp.Body.Close()
		_, err := io.Copy(w, resp.Body)
		//nolint:errcheck
		w.CloseWithError(err)
	}()

	length, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	return length, nil
}

func (s *Service) downloadChunked(ctx context.Context, req *http.Request, w *io.PipeWriter, contentLength int64) {
	// Downloading in multiple chunks is much faster:
	// https://github.com/kkdai/youtube/pull/190
	loadChunk := func(pos int64) (int64, error) {
		chunkReq := req.Clone(ctx)
		chunkReq.Header.Set("Range", fmt.Sprintf("bytes=%v-%v", pos, pos+s.chunkSize-1))

		resp, err := s.httpDo(ctx, chunkReq)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusPartialContent {
			return 0, ErrUnexpectedStatusCode(resp.StatusCode)
		}

		return io.Copy(w, resp.Body)
	}

	for pos := int64(0); pos < contentLength; {
		written, err := loadChunk(pos)
		if err != nil {
			//nolint:errcheck
			w.CloseWithError(err)
			return
		}
		if written == 0 {
			//nolint:errcheck
			w.CloseWithError(io.ErrUnexpectedEOF)
			return
		}
		pos += written
	}
	w.Close()
}

// httpDo sends an HTTP request and returns an HTTP response.
func (s *Service) httpDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := s.ytClient.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	log := logging.FromContextS(ctx)
	if s.debugMode {
		log.Debugw("HTTP request", "method", req.Method, "range", req.Header.Get("Range"))
	}

	res, err := client.Do(req)

	if s.debugMode && res != nil {
		log.Debugw("HTTP response", "status", res.Status)
	}

	return res, err
}
