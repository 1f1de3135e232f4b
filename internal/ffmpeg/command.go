// Package ffmpeg builds argument lists for the ffmpeg and gpac invocations
// of the pipeline. Builders are pure; running them is up to process.Runner.
package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

const srtCodec = "srt"

type Codecs struct {
	Video    string
	Audio    string
	Subtitle string
}

type CommandBuilder struct {
	Codecs Codecs

	// DispositionFirstOnly marks only the first audio and subtitle stream as
	// default. When false every such stream is marked default.
	DispositionFirstOnly bool
}

func NewCommandBuilder(codecs Codecs, dispositionFirstOnly bool) *CommandBuilder {
	return &CommandBuilder{Codecs: codecs, DispositionFirstOnly: dispositionFirstOnly}
}

// Decrypt copies in to out, decrypting it with key.
func (b *CommandBuilder) Decrypt(key, in, out string) []string {
	return []string{"-decryption_key", key, "-i", in, "-c", "copy", out, "-y"}
}

// ConcatSubtitles merges the files named in listFile into a single SRT file.
func (b *CommandBuilder) ConcatSubtitles(listFile, out string) []string {
	return []string{"-f", "concat", "-safe", "0", "-i", listFile, "-c:s", srtCodec, out, "-y"}
}

// ConvertSubtitle rewrites a single subtitle file as SRT.
func (b *CommandBuilder) ConvertSubtitle(in, out string) []string {
	return []string{"-i", in, "-c:s", srtCodec, out, "-y"}
}

// ConcatList renders the input list of the concat demuxer.
func ConcatList(files []string) string {
	lines := make([]string, len(files))
	for i, f := range files {
		p := filepath.ToSlash(f)
		p = strings.ReplaceAll(p, "'", `'\''`)
		lines[i] = fmt.Sprintf("file '%s'", p)
	}

	return strings.Join(lines, "\n")
}

// MuxInput is an audio or subtitle input of the final multiplex.
type MuxInput struct {
	File     string
	Language string
	Title    string
}

type MuxParams struct {
	Video     string
	Audio     []MuxInput
	Subtitles []MuxInput
	Output    string
}

// Mux merges the video, audio and subtitle files into Output. Inputs are
// ordered video, audio, subtitles; stream maps follow that order.
func (b *CommandBuilder) Mux(p MuxParams) []string {
	args := []string{"-i", p.Video}

	for _, a := range p.Audio {
		args = append(args, "-i", a.File)
	}

	for _, s := range p.Subtitles {
		args = append(args, "-i", s.File)
	}

	args = append(args, "-map", "0:v")

	if len(p.Audio) > 0 {
		for i := range p.Audio {
			args = append(args, "-map", fmt.Sprintf("%d:a", i+1))
		}
	} else {
		args = append(args, "-map", "0:a?")
	}

	offset := 1 + len(p.Audio)
	for i := range p.Subtitles {
		args = append(args, "-map", fmt.Sprintf("%d", i+offset))
	}

	args = append(args, metadata("a", p.Audio)...)
	args = append(args, metadata("s", p.Subtitles)...)
	args = append(args, b.disposition("a", len(p.Audio))...)
	args = append(args, b.disposition("s", len(p.Subtitles))...)

	args = append(args,
		"-c:v", b.Codecs.Video,
		"-c:a", b.Codecs.Audio,
		"-c:s", b.Codecs.Subtitle,
		p.Output, "-y",
	)

	return args
}

func metadata(kind string, inputs []MuxInput) []string {
	var args []string
	for i, in := range inputs {
		flag := fmt.Sprintf("-metadata:s:%s:%d", kind, i)
		args = append(args,
			flag, "language="+in.Language,
			flag, "title="+in.Title,
		)
	}

	return args
}

func (b *CommandBuilder) disposition(kind string, n int) []string {
	var args []string
	for i := 0; i < n; i++ {
		value := "default"
		if b.DispositionFirstOnly && i > 0 {
			value = "0"
		}

		args = append(args, fmt.Sprintf("-disposition:%s:%d", kind, i), value)
	}

	return args
}

// GPACConvert converts a box-encapsulated subtitle file; the output format
// follows from the extension of out.
func GPACConvert(in, out string) []string {
	return []string{"-i", in, "-o", out}
}
