package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/catalog"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/format"
)

var playCmd = &cobra.Command{
	Use:   "play [profile]",
	Short: "Play live channels headlessly",
	Long: `Play a profile's live channels, or a single URL, without a UI.

Streams are fetched through the configured proxy endpoint unless --direct
is given, so a running "elitewave serve" is expected. Commands are read
from stdin:

  n, p      next or previous channel
  <number>  switch to channel number (1-based)
  l         list channels
  g         programme guide for the current channel
  s         show playback state
  q         quit`,
	Example: `  elitewave play home --category 7
  elitewave play --url http://cdn.example.com/live/index.m3u8 --direct`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

var playFlags struct {
	category string
	index    int
	url      string
	direct   bool
}

func init() {
	rootCmd.AddCommand(playCmd)

	f := playCmd.Flags()
	f.StringVar(&playFlags.category, "category", "", "live category to attach (default all channels)")
	f.IntVar(&playFlags.index, "index", 1, "channel number to start with (1-based)")
	f.StringVar(&playFlags.url, "url", "", "play a single stream URL instead of a profile")
	f.BoolVar(&playFlags.direct, "direct", false, "fetch streams from their origin instead of the proxy")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playFlags.url == "" && len(args) == 0 {
		return errors.New("a profile or --url is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := observability.WithComponent(slog.Default(), "playback")
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := cfg.PlayerProxyEndpoint()
	if playFlags.direct {
		endpoint = ""
	}
	player := newPlayer(cfg, logger, endpoint, func(tr playback.Transition) {
		line := fmt.Sprintf("[%s] %s -> %s", tr.At.Format("15:04:05"), tr.From, tr.To)
		if tr.Message != "" {
			line += ": " + tr.Message
		}
		fmt.Fprintln(out, line)
	})
	defer func() {
		if err := player.Stop(); err != nil && !errors.Is(err, playback.ErrNoSession) {
			logger.Warn("failed to stop player", slog.String("error", err.Error()))
		}
	}()

	session := &playSession{player: player, out: out}
	if playFlags.url != "" {
		if _, err := player.Play(playFlags.url); err != nil {
			return err
		}
	} else {
		if err := session.attach(ctx, cfg, args[0]); err != nil {
			return err
		}
	}

	return session.loop(ctx, cmd.InOrStdin())
}

// playSession holds the state of one interactive play command.
type playSession struct {
	player   *playback.Player
	catalog  *catalog.Service
	channels []playback.Channel
	out      io.Writer
}

func (s *playSession) attach(ctx context.Context, cfg *config.Config, ref string) error {
	profiles, db, err := openProfiles(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()

	profile, err := profiles.Find(ctx, ref)
	if err != nil {
		return err
	}
	// The player routes URLs through the proxy itself.
	svc, err := profiles.Connect(ctx, profile.ID)
	if err != nil {
		return err
	}
	channels, err := svc.LiveChannels(ctx, playFlags.category)
	if err != nil {
		return fmt.Errorf("listing channels: %w", err)
	}
	if len(channels) == 0 {
		return fmt.Errorf("profile %q has no live channels", profile.Name)
	}

	index := playFlags.index - 1
	if index < 0 || index >= len(channels) {
		index = 0
	}
	s.catalog = svc
	s.channels = channels
	fmt.Fprintf(s.out, "Attached %d channels from %q\n", len(channels), profile.Name)

	_, err = s.player.PlayChannels(channels, index)
	return err
}

// loop reads commands until stdin closes, ctx ends or the user quits.
func (s *playSession) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := s.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (s *playSession) handle(ctx context.Context, line string) bool {
	switch line {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "n":
		s.step(1)
	case "p":
		s.step(-1)
	case "l":
		s.list()
	case "g":
		s.guide(ctx)
	case "s":
		s.status()
	default:
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintf(s.out, "unknown command %q\n", line)
			return false
		}
		if _, ok := s.player.SwitchChannel(n - 1); !ok {
			fmt.Fprintf(s.out, "no channel %d\n", n)
		}
	}
	return false
}

func (s *playSession) step(delta int) {
	if _, ok := s.player.Step(delta); !ok {
		fmt.Fprintln(s.out, "no channel list attached")
	}
}

func (s *playSession) list() {
	if len(s.channels) == 0 {
		fmt.Fprintln(s.out, "no channel list attached")
		return
	}
	current := -1
	if snap, err := s.player.Snapshot(); err == nil {
		current = snap.CurrentIndex
	}
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for i, ch := range s.channels {
		marker := " "
		if i == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", marker, i+1, format.Truncate(ch.Name, 40))
	}
	_ = w.Flush()
}

func (s *playSession) guide(ctx context.Context) {
	snap, err := s.player.Snapshot()
	if err != nil || snap.Channel == nil || s.catalog == nil {
		fmt.Fprintln(s.out, "no guide for this stream")
		return
	}
	listings := s.catalog.ShortGuide(ctx, snap.Channel.StreamID, catalog.DefaultGuideLimit)
	if len(listings) == 0 {
		fmt.Fprintf(s.out, "no guide for %s\n", snap.Channel.Name)
		return
	}
	now := time.Now()
	current, hasCurrent := catalog.CurrentProgram(listings, now)
	for _, l := range listings {
		marker := " "
		if hasCurrent && l.StartTimestamp == current.StartTimestamp {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %s  %s\n", marker, format.Span(l.StartTime(), l.StopTime()), l.Title)
	}
}

func (s *playSession) status() {
	snap, err := s.player.Snapshot()
	if err != nil {
		fmt.Fprintln(s.out, "idle")
		return
	}
	name := snap.ActiveURL
	if snap.Channel != nil {
		name = fmt.Sprintf("%d/%d %s", snap.CurrentIndex+1, snap.ChannelCount, snap.Channel.Name)
	}
	fmt.Fprintf(s.out, "%s  %s\n", snap.State, name)
	if snap.Message != "" {
		fmt.Fprintln(s.out, snap.Message)
	}
}
