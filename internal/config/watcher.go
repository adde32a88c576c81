package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Watcher 监听配置文件变更并下发给注册的回调
// 用于运行中调整日志级别等可热更的配置项
type Watcher struct {
	mu        sync.Mutex
	viper     *viper.Viper
	logger    *logrus.Logger
	current   *Config
	callbacks []func(*Config)
	stopped   bool
}

// NewWatcher 创建配置监听器
func NewWatcher(cfg *Config, configPath string, logger *logrus.Logger) *Watcher {
	if logger == nil {
		logger = logrus.New()
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	return &Watcher{
		viper:   v,
		logger:  logger,
		current: cfg,
	}
}

// OnChange 注册配置变更回调,回调在文件写入后按注册顺序执行
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start 启动监听
func (w *Watcher) Start() error {
	if err := w.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	w.viper.WatchConfig()
	w.viper.OnConfigChange(func(e fsnotify.Event) {
		w.reload(e.Name)
	})
	return nil
}

func (w *Watcher) reload(name string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	var next Config
	if err := w.viper.Unmarshal(&next); err != nil {
		w.logger.WithError(err).WithField("file", name).Warn("Ignoring invalid config change")
		return
	}

	w.logger.WithField("file", name).Info("Config file changed, applying")

	// 回调在锁外执行,回调里可以安全地再读当前配置
	for _, callback := range callbacks {
		callback(&next)
	}

	w.mu.Lock()
	w.current = &next
	w.mu.Unlock()
}

// Stop 停止下发变更,fsnotify 监听随进程退出释放
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

// Current 获取最近一次成功加载的配置
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
