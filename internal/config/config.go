package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var (
	errInvalidPort    = errors.New("port out of range")
	errInvalidWorkers = errors.New("course workers must be positive")
	errEmptyCourseDir = errors.New("course directory must not be empty")
	errRootNotDir     = errors.New("static root is not a directory")
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Courses CoursesConfig `toml:"courses"`
}

type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	Root              string `toml:"root"`
	Entry             string `toml:"entry"`
	OpenBrowser       bool   `toml:"open_browser"`
	ReadHeaderTimeout int    `toml:"read_header_timeout"`
}

type CoursesConfig struct {
	Dir     string `toml:"dir"`
	Workers int    `toml:"workers"`
}

// DefaultConfig は実行ファイルのあるディレクトリを配信ルートとする設定を返す
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        0,
			Root:        executableDir(),
			Entry:       "index.html",
			OpenBrowser: true,
		},
		Courses: CoursesConfig{
			Dir:     "courses",
			Workers: 4,
		},
	}
}

// Load はデフォルト設定の上にTOMLファイルの値を重ねる。pathが空ならデフォルトのみ
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve makes Root absolute and validates the values that cannot be
// corrected later. It is called once at process start.
func (c *Config) Resolve() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", errInvalidPort, c.Server.Port)
	}
	if c.Courses.Workers <= 0 {
		return fmt.Errorf("%w: %d", errInvalidWorkers, c.Courses.Workers)
	}
	if c.Courses.Dir == "" {
		return errEmptyCourseDir
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}

	root, err := filepath.Abs(c.Server.Root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", c.Server.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errRootNotDir, root)
	}

	c.Server.Root = root
	return nil
}

func (c ServerConfig) HeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeout) * time.Second
}

// CoursesPath is the directory scanned by the course listing.
func (c Config) CoursesPath() string {
	return filepath.Join(c.Server.Root, c.Courses.Dir)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
