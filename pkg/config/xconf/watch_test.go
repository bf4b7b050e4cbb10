package xconf

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "cache.yaml", "default: a\n")
	cfg, err := New(path)
	require.NoError(t, err)

	reloaded := make(chan string, 4)
	w, err := Watch(cfg, func(c Config, err error) {
		if err == nil {
			reloaded <- c.Client().String("default")
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	w.StartAsync()
	defer func() { require.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(path, []byte("default: b\n"), 0o600))

	select {
	case got := <-reloaded:
		assert.Equal(t, "b", got)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatch_BytesConfig(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)

	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)

	_, err = Watch(nil, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestWatch_StopWithoutStart(t *testing.T) {
	path := writeFile(t, "cache.yaml", "default: a\n")
	cfg, err := New(path)
	require.NoError(t, err)

	w, err := Watch(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	// Stop 之后 StartAsync 不再启动 goroutine
	w.StartAsync()
}
