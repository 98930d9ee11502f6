package media

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	ExtVideo = ".mp4"
	ExtAudio = ".m4a"
)

var titleReplacer = strings.NewReplacer(
	`\`, "-", "/", "-", "?", "-", "<", "-", ">", "-",
	"%", "-", "*", "-", ":", "-", "|", "-", `"`, "-",
)

// SanitizeTitle replaces characters that are reserved in file names with '-'.
func SanitizeTitle(title string) string {
	return titleReplacer.Replace(title)
}

// OutputPath is the final file for a title in dir.
func OutputPath(dir, title, ext string) string {
	return filepath.Join(dir, SanitizeTitle(title)+ext)
}

// TrackTempPath is the relay file of one track, a sibling of output: <base>_video.mp4 / <base>_audio.mp4.
func TrackTempPath(output string, kind TrackKind) string {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return base + "_" + kind.String() + ExtVideo
}

// StagingPath is a hidden sibling of output that the final file is renamed from.
func StagingPath(output string) string {
	dir, name := filepath.Split(output)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()[:8]+".part"+ext)
}
