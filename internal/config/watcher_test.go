package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWatcherConfig(t *testing.T, path, level string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: "+level+"\n"), 0644))
}

// TestWatcherStartMissingFile 测试配置文件缺失时启动失败
func TestWatcherStartMissingFile(t *testing.T) {
	w := NewWatcher(Default(), filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, w.Start())
}

// TestWatcherReload 测试变更下发与当前配置更新
func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeWatcherConfig(t, path, "debug")

	w := NewWatcher(Default(), path, nil)

	var mu sync.Mutex
	var got []string
	w.OnChange(func(next *Config) {
		mu.Lock()
		got = append(got, next.Log.Level)
		mu.Unlock()
	})
	require.NoError(t, w.Start())

	// 直接驱动重载,不依赖文件系统事件的时序
	writeWatcherConfig(t, path, "error")
	require.NoError(t, w.viper.ReadInConfig())
	w.reload(path)

	mu.Lock()
	assert.Contains(t, got, "error")
	mu.Unlock()
	assert.Equal(t, "error", w.Current().Log.Level)

	// 未显式配置的键仍落在默认值上
	assert.Equal(t, 8080, w.Current().Server.Port)
}

// TestWatcherStop 测试停止后变更不再下发
func TestWatcherStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeWatcherConfig(t, path, "debug")

	w := NewWatcher(Default(), path, nil)

	fired := false
	w.OnChange(func(next *Config) { fired = true })
	require.NoError(t, w.Start())

	w.Stop()
	writeWatcherConfig(t, path, "error")
	require.NoError(t, w.viper.ReadInConfig())
	w.reload(path)

	assert.False(t, fired)
	assert.Equal(t, "debug", w.Current().Log.Level)
}
