package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
)

type stubEngine struct{}

func (stubEngine) Load(string) error  { return nil }
func (stubEngine) StartLoad()         {}
func (stubEngine) RecoverMediaError() {}
func (stubEngine) Destroy()           {}

func newTestPlaySession(t *testing.T) (*playSession, *bytes.Buffer) {
	t.Helper()
	player := playback.NewPlayer(func(playback.EngineEvents) playback.Engine { return stubEngine{} })
	t.Cleanup(func() { _ = player.Stop() })

	var out bytes.Buffer
	return &playSession{player: player, out: &out}, &out
}

func TestPlaySession_SwitchAndList(t *testing.T) {
	s, out := newTestPlaySession(t)
	s.channels = []playback.Channel{
		{StreamID: 1, Name: "One", URL: "http://cdn.test/one.m3u8"},
		{StreamID: 2, Name: "Two", URL: "http://cdn.test/two.m3u8"},
	}
	_, err := s.player.PlayChannels(s.channels, 0)
	require.NoError(t, err)

	require.NoError(t, s.loop(context.Background(), strings.NewReader("2\nl\nq\nn\n")))

	snap, err := s.player.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentIndex, "commands after q are ignored")
	assert.Contains(t, out.String(), "Two")
	assert.Contains(t, out.String(), "*")
}

func TestPlaySession_Errors(t *testing.T) {
	s, out := newTestPlaySession(t)
	_, err := s.player.Play("http://cdn.test/live.m3u8")
	require.NoError(t, err)

	require.NoError(t, s.loop(context.Background(), strings.NewReader("n\nbogus\nl\ng\n")))

	assert.Contains(t, out.String(), "no channel list attached")
	assert.Contains(t, out.String(), `unknown command "bogus"`)
	assert.Contains(t, out.String(), "no guide for this stream")
}

func TestPlaySession_StopsOnCancel(t *testing.T) {
	s, _ := newTestPlaySession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.loop(ctx, strings.NewReader("")))
}
