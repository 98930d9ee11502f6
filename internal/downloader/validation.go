package downloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var ErrEmptyLink = errors.New("link is empty")

// ValidateLink checks that link points to a YouTube video.
func ValidateLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return ErrEmptyLink
	}
	if !strings.Contains(link, "youtu.be/") && !strings.Contains(link, "youtube.com/") {
		return fmt.Errorf("string %q doesn't contain youtube host", link)
	}
	if _, err := youtube.ExtractVideoID(link); err != nil {
		return fmt.Errorf("failed to extract video id from link: %w", err)
	}
	return nil
}
