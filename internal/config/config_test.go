package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	c, err := Parse([]byte(`
version: 1
log_level: debug
workers: 3
metrics_addr: ":9090"
profiling: true
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, ":9090", c.MetricsAddr)
	assert.True(t, c.Profiling)
	assert.Equal(t, DefaultTickRate, c.TickRate)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "version: 1\nspeed: 3\n"},
		{"bad level", "log_level: chatty\n"},
		{"negative workers", "workers: -1\n"},
		{"bad metrics addr", "metrics_addr: nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("version: 2\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadConfig(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, CurrentVersion, c.Version)
	assert.Equal(t, DefaultLogLevel, c.LogLevel)

	path := filepath.Join(t.TempDir(), "animgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate: 30\n"), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, c.TickRate)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

const scenarioDoc = `
graph: graphs/locomotion.yaml
frames: 30
root_motion: auto
skeleton:
  - name: root
    parent: -1
  - name: hip
    parent: 0
clips:
  - name: walk
    duration: 1
    channels:
      - bone: 0
        position:
          - {time: 0, value: [0, 0, 0]}
          - {time: 1, value: [1, 0, 0]}
    events:
      - {time: 0.5, function: footstep}
writes:
  - {frame: 10, name: speed, type: float, value: 2}
  - {frame: 5, name: moving, type: bool, value: true}
  - {frame: 10, name: stance, type: int, value: 3}
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioDoc))
	require.NoError(t, err)

	assert.Equal(t, 30, s.Frames)
	assert.Equal(t, DefaultDeltaTime, s.DeltaTime)
	assert.Equal(t, 1, s.Instances)
	assert.Equal(t, "auto", s.RootMotion)

	skeleton, err := s.BuildSkeleton()
	require.NoError(t, err)
	assert.Equal(t, 2, skeleton.BoneCount())
	assert.Equal(t, int32(0), skeleton.ParentIndex(1))

	clips := s.ClipsByName()
	require.Contains(t, clips, "walk")
	assert.Equal(t, "footstep", clips["walk"].Events[0].FunctionName)

	assert.Empty(t, s.WritesAt(0))
	at5 := s.WritesAt(5)
	require.Len(t, at5, 1)
	assert.True(t, at5[0].Bool())

	at10 := s.WritesAt(10)
	require.Len(t, at10, 2)
	assert.Equal(t, "speed", at10[0].Name)
	assert.Equal(t, float32(2), at10[0].Float())
	assert.Equal(t, int32(3), at10[1].Int())
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing graph", "frames: 3\n"},
		{"no frames", "graph: g.yaml\n"},
		{"bad root motion", "graph: g.yaml\nframes: 1\nroot_motion: sideways\n"},
		{"write type mismatch", "graph: g.yaml\nframes: 1\nwrites:\n  - {frame: 0, name: go, type: bool, value: 3}\n"},
		{"unknown key", "graph: g.yaml\nframes: 1\nloop: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenarioResolvesGraphPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph: graphs/loco.yaml\nframes: 2\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "graphs", "loco.yaml"), s.Graph)
	assert.Equal(t, 1, s.Instances)
}

func TestLoadExampleFiles(t *testing.T) {
	c, err := Load("../../examples/locomotion/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, 20.0, c.TickRate)

	s, err := LoadScenario("../../examples/locomotion/scenario.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("../../examples/locomotion", "graph.yaml"), s.Graph)
	assert.Equal(t, 60, s.Frames)
	assert.Equal(t, "auto", s.RootMotion)
	require.Len(t, s.WritesAt(5), 1)
	assert.True(t, s.WritesAt(5)[0].Bool())
	assert.False(t, s.WritesAt(40)[0].Bool())

	skel, err := s.BuildSkeleton()
	require.NoError(t, err)
	assert.Equal(t, 2, skel.BoneCount())
	require.Contains(t, s.ClipsByName(), "walk")
	assert.Len(t, s.ClipsByName()["walk"].Events, 2)
}
