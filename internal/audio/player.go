// Package audio plays short impact samples through the system speaker.
// It is the default SoundPlayer wired into the engine by the daemon;
// headless deployments pass nothing and the engine stays silent.
package audio

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"splat/internal/splat"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// Target sample rate for the speaker. Buffers decoded from files with a
// different rate are resampled once at load time, not per playback.
const sampleRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// initSpeaker opens the audio device exactly once per process. Multiple
// players (one per engine) share the same speaker.
func initSpeaker() error {
	speakerOnce.Do(func() {
		// 50ms buffer: small enough to feel immediate, large enough to
		// survive GC pauses without underruns.
		speakerErr = speaker.Init(sampleRate, sampleRate.N(50_000_000))
	})
	return speakerErr
}

// Player maps engine sound cues to pre-decoded sample buffers and plays a
// random sample per cue. Playback is fire-and-forget on the speaker's own
// goroutine, so Play never blocks the engine step.
//
// Graceful fallback: if the sample directory or the audio device is
// missing, the player loads as a silent no-op instead of failing the
// daemon. A splatter without sound beats no splatter at all.
type Player struct {
	mu      sync.Mutex
	samples map[splat.SoundCue][]*beep.Buffer
	rng     *rand.Rand
	volume  float64
	enabled bool
}

// cueStems maps each cue to the file stem searched for in the sample
// directory. Numbered variants (splat-fire1.wav, splat-fire2.wav, ...)
// are all loaded and picked from at random.
var cueStems = map[splat.SoundCue]string{
	splat.CueFire:   "splat-fire",
	splat.CueImpact: "splat-impact",
	splat.CueMerge:  "splat-merge",
}

// NewPlayer loads WAV samples from dir and prepares the speaker.
// volume is a multiplier in (0, 1]; 0 disables playback entirely.
func NewPlayer(dir string, volume float64) *Player {
	p := &Player{
		samples: make(map[splat.SoundCue][]*beep.Buffer),
		rng:     rand.New(rand.NewSource(rand.Int63())),
		volume:  volume,
	}

	if volume <= 0 {
		log.Println("🔇 Sound disabled (volume 0)")
		return p
	}

	if err := initSpeaker(); err != nil {
		log.Printf("⚠️ Sound disabled: speaker init failed: %v", err)
		return p
	}

	total := 0
	for cue, stem := range cueStems {
		buffers, err := loadVariants(dir, stem)
		if err != nil {
			log.Printf("⚠️ No samples for %q: %v", stem, err)
			continue
		}
		p.samples[cue] = buffers
		total += len(buffers)
	}

	if total == 0 {
		log.Printf("⚠️ Sound disabled: no samples found in %s", dir)
		return p
	}

	p.enabled = true
	log.Printf("🔊 Loaded %d sound samples from %s", total, dir)
	return p
}

// loadVariants decodes every "<stem>*.wav" file in dir into memory.
func loadVariants(dir, stem string) ([]*beep.Buffer, error) {
	matches, err := filepath.Glob(filepath.Join(dir, stem+"*.wav"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %s*.wav", stem)
	}
	sort.Strings(matches)

	var buffers []*beep.Buffer
	for _, path := range matches {
		buf, err := loadWAV(path)
		if err != nil {
			log.Printf("⚠️ Skipping %s: %v", path, err)
			continue
		}
		buffers = append(buffers, buf)
	}
	if len(buffers) == 0 {
		return nil, fmt.Errorf("all %s*.wav files failed to decode", stem)
	}
	return buffers, nil
}

// loadWAV fully decodes one sample into a buffer, resampling to the
// speaker rate if needed. Samples are short (tens of ms) so buffering
// them is cheap, unlike background music which would be streamed.
func loadWAV(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	buf := beep.NewBuffer(beep.Format{
		SampleRate:  sampleRate,
		NumChannels: 2,
		Precision:   2,
	})

	if format.SampleRate != sampleRate {
		buf.Append(beep.Resample(4, format.SampleRate, sampleRate, streamer))
	} else {
		buf.Append(streamer)
	}
	return buf, nil
}

// Play starts a random sample for the cue. No-op when disabled or when
// the cue has no loaded samples.
func (p *Player) Play(cue splat.SoundCue) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	buffers := p.samples[cue]
	if len(buffers) == 0 {
		p.mu.Unlock()
		return
	}
	buf := buffers[p.rng.Intn(len(buffers))]
	vol := p.volume
	p.mu.Unlock()

	streamer := buf.Streamer(0, buf.Len())
	speaker.Play(&effects.Volume{
		Streamer: streamer,
		Base:     2,
		// Volume is exponential in beep; map the linear 0-1 knob onto
		// a -4..0 range of doublings.
		Volume: (vol - 1) * 4,
		Silent: vol == 0,
	})
}
