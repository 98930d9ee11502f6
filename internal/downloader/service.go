package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/kkdai/youtube/v2"
	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/logging"
	"github.com/vm-affekt/ytmux/internal/media"
	"go.uber.org/zap"
)

const (
	videoMP4PatternMime = "video/mp4"
	audioMP4PatternMime = "audio/mp4"
)

// Service is the YouTube stream source.
type Service struct {
	debugMode bool
	chunkSize int64
	ytClient  *youtube.Client

	mu     sync.Mutex
	videos map[string]*youtube.Video
}

func New(debugMode bool, chunkSize int64, httpClient *http.Client) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Service{
		debugMode: debugMode,
		chunkSize: chunkSize,
		ytClient: &youtube.Client{
			Debug:      debugMode,
			HTTPClient: httpClient,
		},
		videos: make(map[string]*youtube.Video),
	}
}

var _ app.StreamSource = (*Service)(nil)

func (s *Service) Resolve(ctx context.Context, link string) (media.Info, error) {
	ctx = logging.NewContextS(ctx, zap.String("video_link", link))
	log := logging.FromContextS(ctx)

	link = s.transformLink(ctx, link)
	video, err := s.ytClient.GetVideoContext(ctx, link)
	if err != nil {
		return media.Info{}, &app.ResolutionError{Link: link, Err: err}
	}
	log.Infof("Got video metadata with %d formats", len(video.Formats))

	native := 0
	if f := bestVideoFormat(video.Formats); f != nil {
		native = f.Height
		if native == 0 {
			native = media.ParseHeight(f.QualityLabel)
		}
	}

	s.mu.Lock()
	s.videos[video.ID] = video
	s.mu.Unlock()

	return media.Info{
		ID:           video.ID,
		Title:        video.Title,
		Author:       video.Author,
		Duration:     video.Duration,
		NativeHeight: native,
	}, nil
}

func (s *Service) Open(ctx context.Context, info media.Info, kind media.TrackKind) (app.Stream, error) {
	log := logging.FromContextS(ctx)

	s.mu.Lock()
	video, ok := s.videos[info.ID]
	s.mu.Unlock()
	if !ok {
		return app.Stream{}, fmt.Errorf("video %q was not resolved", info.ID)
	}

	var format *youtube.Format
	switch kind {
	case media.Video:
		format = bestVideoFormat(video.Formats)
	case media.Audio:
		format = bestAudioFormat(video.Formats)
	default:
		return app.Stream{}, fmt.Errorf("unsupported track kind %v", kind)
	}
	if format == nil {
		return app.Stream{}, fmt.Errorf("no %s format found for video %q", kind, info.ID)
	}
	log.Infow("Found format for "+kind.String()+" track",
		"format_mime_type", format.MimeType,
		"format_quality", format.QualityLabel,
		"format_itag", format.ItagNo,
		"format_bitrate", format.Bitrate,
	)

	body, contentLen, err := s.openStream(ctx, video, format)
	if err != nil {
		return app.Stream{}, fmt.Errorf("failed to get %s stream: %w", kind, err)
	}
	log.Infof("Started downloading %s stream. Content length is %s", kind, humanize.Bytes(uint64(contentLen)))
	return app.Stream{ContentLen: contentLen, Body: body}, nil
}

// bestVideoFormat picks the tallest video-only mp4 format, then the highest bitrate.
func bestVideoFormat(formats youtube.FormatList) *youtube.Format {
	var candidates youtube.FormatList
	for _, f := range formats.Type(videoMP4PatternMime) {
		if f.AudioChannels == 0 {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		hi, hj := formatHeight(&candidates[i]), formatHeight(&candidates[j])
		if hi != hj {
			return hi > hj
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return &candidates[0]
}

// bestAudioFormat picks the highest bitrate mp4 audio format.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	candidates := formats.WithAudioChannels().Type(audioMP4PatternMime)
	if len(candidates) == 0 {
		return nil
	}
	best := 0
	for i := range candidates {
		if candidates[i].Bitrate > candidates[best].Bitrate {
			best = i
		}
	}
	return &candidates[best]
}

func formatHeight(f *youtube.Format) int {
	if f.Height > 0 {
		return f.Height
	}
	return media.ParseHeight(f.QualityLabel)
}

// transformLink extracts and returns video id if link has '/live/' path.
// Youtube downloader lib has bug: it doesn't recognize '/live/' links.
func (s *Service) transformLink(ctx context.Context, link string) string {
	const livePath = "/live/"
	log := logging.FromContextS(ctx)
	parsedURL, err := url.Parse(link)
	if err != nil {
		log.Errorf("downloader.transformLink: failed to parse url: %v", err)
		return link
	}
	path := parsedURL.Path
	if !strings.HasPrefix(path, livePath) {
		return link
	}
	startIdx := len(livePath)
	if len(path) == startIdx {
		log.Errorf("downloader.transformLink: no video_id after %s", livePath)
		return link
	}
	return path[startIdx:]
}
