package sound

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog/log"
)

const (
	maxFileSize = 50 * 1024 * 1024
	toneRate    = beep.SampleRate(44100)
)

var supportedExts = []string{".mp3", ".wav", ".ogg"}

var (
	speakerOnce sync.Once
	speakerErr  error
	mixer       *beep.Mixer
	sampleRate  beep.SampleRate
)

func initSpeaker(sr beep.SampleRate) error {
	speakerOnce.Do(func() {
		sampleRate = sr
		// The buffer size should be large enough to avoid under-runs.
		bufferSize := sr.N(time.Second / 10)
		if err := speaker.Init(sampleRate, bufferSize); err != nil {
			log.Error().Err(err).Msg("Failed to initialize speaker")
			speakerErr = err
			return
		}
		mixer = &beep.Mixer{}
		speaker.Play(mixer)
	})
	return speakerErr
}

// ValidateFile checks that path names a readable audio file of a supported format.
func ValidateFile(path string) error {
	if path == "" {
		return errors.New("empty file path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return errors.New("path is a directory")
	}
	if info.Size() == 0 {
		return errors.New("file is empty")
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("file is too large (%d bytes, max %d)", info.Size(), maxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range supportedExts {
		if e == ext {
			return nil
		}
	}
	return fmt.Errorf("unsupported file format %q", ext)
}

// Play plays the audio file at path and waits until it finished. An empty path
// plays the built-in chime.
func Play(path string) error {
	streamer, format, closer, err := open(path)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	// Initialize the speaker with the format of the first sound played.
	if err := initSpeaker(format.SampleRate); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	// Resample to the mixer's rate; the mixer handles playing it.
	resampled := beep.Resample(4, format.SampleRate, sampleRate, streamer)
	done := make(chan struct{})
	speaker.Lock()
	mixer.Add(beep.Seq(resampled, beep.Callback(func() {
		close(done)
	})))
	speaker.Unlock()

	<-done
	return nil
}

func open(path string) (beep.Streamer, beep.Format, io.Closer, error) {
	format := beep.Format{SampleRate: toneRate, NumChannels: 2, Precision: 2}
	if path == "" {
		return Chime(toneRate), format, nil, nil
	}
	if err := ValidateFile(path); err != nil {
		return nil, format, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, format, nil, err
	}

	var s beep.StreamSeekCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, format, nil, fmt.Errorf("failed to decode audio stream: %w", err)
	}
	return s, format, s, nil
}

// Chime returns a short two-note tone that fades out.
func Chime(sr beep.SampleRate) beep.Streamer {
	return beep.Seq(tone(sr, 880, 150*time.Millisecond), tone(sr, 1320, 300*time.Millisecond))
}

func tone(sr beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := sr.N(d)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			fade := 1 - float64(pos)/float64(total)
			v := 0.4 * fade * math.Sin(2*math.Pi*freq*float64(pos)/float64(sr))
			samples[i][0], samples[i][1] = v, v
			pos++
			n++
		}
		return n, true
	})
}
