package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

const (
	QualityHighest = "highest"
	QualityMedium  = "medium"
	QualityLowest  = "lowest"
)

const (
	defaultQuality         = QualityHighest
	defaultConcurrency     = 5
	defaultVideoCodec      = "copy"
	defaultAudioCodec      = "copy"
	defaultSubtitleCodec   = "srt"
	defaultClean           = true
	defaultSegmentTimeout  = 30 * time.Second
	defaultManifestTimeout = 30 * time.Second
	defaultRetryDelay      = 500 * time.Millisecond
	defaultRetryMaxDelay   = 10 * time.Second
)

var (
	defaultOutDir      = xdg.UserDirs.Download
	defaultHistoryPath = filepath.Join(xdg.DataHome, configFileName, "history.db")
	defaultFFmpegPath  = binaryName("ffmpeg")
	defaultGPACPath    = binaryName("gpac")
)

func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}

	return name
}
