package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/drgolem/playercore/internal/config"
	"github.com/drgolem/playercore/internal/diag"
	"github.com/drgolem/playercore/pkg/audio"
	"github.com/drgolem/playercore/pkg/decoderstream"
	"github.com/drgolem/playercore/pkg/host"
	"github.com/drgolem/playercore/pkg/loop"
	"github.com/drgolem/playercore/pkg/player"
	"github.com/drgolem/playercore/pkg/sink"
	"github.com/drgolem/playercore/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	playDeviceIdx    int
	playRingCapacity uint64
	playFrames       int
	playLogLevel     string
)

// playCmd drives the gapless engine end-to-end: a PortAudio sink, the
// decoderstream factory, and a terminal host.Ops, wired exactly the way
// player.Player expects to be driven.
var playCmd = &cobra.Command{
	Use:   "play <audio_file> [audio_file...]",
	Short: "Play audio files gaplessly (MP3, FLAC, WAV, Ogg Vorbis)",
	Long: `Play one or more audio files back to back with no gap between tracks.

Rather than reopening the output stream between files, play keeps a
single player engine and sink running for the whole queue: the next track is
decoded and handed to the sink while the current one is still draining, so
there is no silence at the boundary.

Examples:
  playercore play track.mp3
  playercore play -d 0 album/*.flac
  playercore play --capacity 512 track1.wav track2.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playDeviceIdx, "device", "d", 1, "Audio output device index")
	playCmd.Flags().Uint64VarP(&playRingCapacity, "capacity", "c", 256, "Sink ring buffer capacity, in AudioFrames")
	playCmd.Flags().IntVarP(&playFrames, "frames", "f", 512, "PortAudio frames per buffer")
	playCmd.Flags().StringVar(&playLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	v := viper.New()
	if err := config.BindFlags(v, playCmd.Flags()); err != nil {
		diag.Warn("play: bind config flags failed", "error", err)
	}
	playViper = v
}

var playViper *viper.Viper

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(playViper)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	switch cfg.LogLevel {
	case "debug":
		diag.SetLevel(log.DebugLevel)
	case "warn":
		diag.SetLevel(log.WarnLevel)
	case "error":
		diag.SetLevel(log.ErrorLevel)
	default:
		diag.SetLevel(log.InfoLevel)
	}

	diag.Info("initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer func() {
		if err := portaudio.Terminate(); err != nil {
			diag.Warn("terminate PortAudio failed", "error", err)
		}
	}()
	diag.Info("PortAudio initialized", "version", portaudio.GetVersion())
	diag.Info("configuration",
		"device_index", cfg.DeviceIndex,
		"ring_capacity", cfg.RingCapacity,
		"frames_per_buffer", cfg.FramesPerBuffer)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	th := newTerminalHost(args)

	l := loop.New()
	defer l.Free()

	p := player.New(ctx, l, th)
	s := sink.New(p, cfg.DeviceIndex, cfg.FramesPerBuffer, cfg.RingCapacity)
	p.SetSink(s)

	stream, cookie, err := th.GetNextTrackSync(ctx)
	if err != nil {
		return fmt.Errorf("open first track: %w", err)
	}
	p.InputLoad(stream, cookie, false)

	statusDone := make(chan struct{})
	go reportStatus(th, statusDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	runDone := make(chan int, 1)
	go func() { runDone <- l.Run() }()

	select {
	case <-runDone:
		diag.Info("playback queue exhausted")
	case sig := <-sigChan:
		diag.Info("signal received, stopping", "signal", sig)
		l.Delegate(func() {
			p.Stop()
			l.Stop(0)
		})
		<-runDone
	}

	close(statusDone)
	return nil
}

// reportStatus prints a compact status line every 2 seconds, in the spirit
// of the original player command's periodic status reporting.
func reportStatus(mon types.PlaybackMonitor, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st := mon.GetPlaybackStatus()
			if st.FileName == "" {
				continue
			}
			diag.Info("status",
				"file", st.FileName,
				"sample_rate", st.SampleRate,
				"channels", st.Channels,
				"elapsed", st.ElapsedTime.Round(time.Second))
		case <-done:
			return
		}
	}
}

// terminalHost implements host.Ops by walking a fixed file list in order
// and logging every upcall; it is the embedding application a standalone
// CLI needs, as opposed to, say, a playlist manager driving the engine
// interactively.
type terminalHost struct {
	mu     sync.Mutex
	files  []string
	next   int
	status types.PlaybackStatus
	start  time.Time
}

func newTerminalHost(files []string) *terminalHost {
	return &terminalHost{files: files}
}

func (h *terminalHost) PositionChanged(sec uint32) {
	diag.Debug("position_changed", "sec", sec)
}

func (h *terminalHost) TrackChanged(cookie any) {
	diag.Info("track_changed", "cookie", cookie)
}

func (h *terminalHost) SinkInfoChanged(info sink.Info) {
	diag.Info("sink_info_changed",
		"stopped", info.Stopped, "paused", info.Paused, "mute", info.Mute)
}

func (h *terminalHost) GetNextTrackSync(ctx context.Context) (decoderstream.Stream, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.next >= len(h.files) {
		return nil, nil, nil
	}
	fileName := h.files[h.next]
	h.next++

	stream, err := decoderstream.Open(fileName)
	if err != nil {
		diag.Warn("play: failed to open track, skipping", "file", fileName, "error", err)
		return nil, nil, nil
	}

	cookie := uuid.NewString()
	h.status = statusFor(fileName, stream.Format())
	h.start = time.Now()

	diag.Info("queued track", "file", filepath.Base(fileName), "cookie", cookie)
	return stream, cookie, nil
}

func (h *terminalHost) GetPlaybackStatus() types.PlaybackStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.status
	st.ElapsedTime = time.Since(h.start)
	return st
}

func statusFor(fileName string, format audio.Format) types.PlaybackStatus {
	return types.PlaybackStatus{
		FileName:      filepath.Base(fileName),
		SampleRate:    int(format.SampleRate),
		Channels:      int(format.Channels),
		BitsPerSample: audio.BytesPerSample(format.SampleFmt) * 8,
	}
}
