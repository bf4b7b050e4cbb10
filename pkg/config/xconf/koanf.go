package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// koanfConfig 是 Config 接口的 koanf 实现。
type koanfConfig struct {
	mu       sync.RWMutex
	reloadMu sync.Mutex
	k        *koanf.Koanf
	path     string
	format   Format
	opts     *Options
}

// New 从文件路径创建配置实例。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	options := applyOptions(opts)
	k, err := loadFile(path, format, options)
	if err != nil {
		return nil, err
	}

	return &koanfConfig{k: k, path: path, format: format, opts: options}, nil
}

// NewFromBytes 从字节数据创建配置实例。
// 空数据会创建一个空配置，Unmarshal 得到目标结构体的零值。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	options := applyOptions(opts)
	k := koanf.New(options.Delim)
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return nil, err
		}
	}

	return &koanfConfig{k: k, format: format, opts: options}, nil
}

func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	k := c.Client()
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}

	// 串行化并发 Reload，防止较旧的读取结果覆盖较新的
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	k, err := loadFile(c.path, c.format, c.opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

func (c *koanfConfig) Path() string {
	return c.path
}

func (c *koanfConfig) Format() Format {
	return c.format
}

// =============================================================================
// 内部辅助函数
// =============================================================================

func applyOptions(opts []Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func loadFile(path string, format Format, opts *Options) (*koanf.Koanf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k := koanf.New(opts.Delim)
	if err := loadData(k, data, format); err != nil {
		return nil, err
	}
	return k, nil
}

func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
