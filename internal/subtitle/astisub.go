package subtitle

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/asticode/go-astisub"
)

// Astisub converts and merges subtitle files with go-astisub.
type Astisub struct{}

func NewAstisub() *Astisub {
	return &Astisub{}
}

// ToSRT converts the TTML file in to SRT. fps is used for frame based
// timestamps when the document does not declare its own frame rate.
func (a *Astisub) ToSRT(in, out string, fps float64) error {
	s, err := readTTML(in, fps)
	if err != nil {
		return err
	}

	return write(s, out)
}

// Merge reads every file in order and writes their union to out.
func (a *Astisub) Merge(files []string, out string) error {
	var merged *astisub.Subtitles

	for _, f := range files {
		var (
			s   *astisub.Subtitles
			err error
		)

		if strings.EqualFold(filepath.Ext(f), ".ttml") {
			s, err = readTTML(f, 0)
		} else {
			s, err = astisub.OpenFile(f)
		}

		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		if merged == nil {
			merged = s
			continue
		}

		merged.Merge(s)
	}

	if merged == nil {
		merged = astisub.NewSubtitles()
	}

	return write(merged, out)
}

func readTTML(path string, fps float64) (*astisub.Subtitles, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return astisub.ReadFromTTML(bytes.NewReader(withFrameRate(b, fps)))
}

var ttOpenTag = regexp.MustCompile(`<tt([\s>])`)

// withFrameRate declares fps on the root element unless the document already
// carries a frame rate.
func withFrameRate(doc []byte, fps float64) []byte {
	if fps <= 0 || bytes.Contains(doc, []byte("frameRate")) {
		return doc
	}

	loc := ttOpenTag.FindIndex(doc)
	if loc == nil {
		return doc
	}

	attr := fmt.Sprintf(`<tt ttp:frameRate="%d"`, int(math.Round(fps)))

	out := make([]byte, 0, len(doc)+len(attr))
	out = append(out, doc[:loc[0]]...)
	out = append(out, attr...)
	out = append(out, doc[loc[0]+len("<tt"):]...)

	return out
}

func write(s *astisub.Subtitles, out string) error {
	if len(s.Items) == 0 {
		return os.WriteFile(out, nil, 0o644)
	}

	return s.Write(out)
}
