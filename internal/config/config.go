package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wats-sdk/internal/types"
)

// Config 定义应用程序的配置结构
// 使用 mapstructure 标签来映射配置文件中的字段
type Config struct {
	ServerURL  string  `mapstructure:"server_url"`        // WATS 服务地址
	Token      string  `mapstructure:"token"`             // API token，以 Basic 方式发送
	TimeoutMs  int     `mapstructure:"timeout_ms"`        // 单次请求超时
	MaxWorkers int     `mapstructure:"max_workers"`       // 并发上传的工人数
	QueuePath  string  `mapstructure:"queue_path"`        // 离线队列 WAL 文件
	RetryMs    int     `mapstructure:"retry_interval_ms"` // 失败报告重新入队的间隔，0 表示不自动重试
	SubmitRule string  `mapstructure:"submit_rule"`       // 提交规则 (expr 表达式)，为空时全部提交
	Mode       string  `mapstructure:"mode"`              // active | import
	ListenAddr string  `mapstructure:"listen_addr"`       // uploader 服务监听地址
	Station    Station `mapstructure:"station"`
}

// Station 工站描述，未在报告中填写时使用
type Station struct {
	Name     string `mapstructure:"name"`
	Location string `mapstructure:"location"`
	Purpose  string `mapstructure:"purpose"`
}

// Timeout 返回请求超时
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RetryInterval 返回失败报告重新入队的间隔
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryMs) * time.Millisecond
}

// BuildMode 解析配置中的构建模式
func (c *Config) BuildMode() (types.BuildMode, error) {
	return types.ParseBuildMode(c.Mode)
}

// LoadConfig 从 config.yaml 文件加载配置
// 配置文件可选；环境变量 WATS_SERVER_URL、WATS_STATION_NAME 等会覆盖文件中的取值
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // 配置文件名称 (不带扩展名)
		v.SetConfigType("yaml")   // 配置文件类型
		v.AddConfigPath(".")      // 查找配置文件的路径 (当前目录)
	}

	v.SetEnvPrefix("WATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值；AutomaticEnv 只对已知的 key 生效，所以每个 key 都需要默认值
	v.SetDefault("server_url", "http://localhost:9090")
	v.SetDefault("token", "")
	v.SetDefault("timeout_ms", 10000)
	v.SetDefault("max_workers", 4)
	v.SetDefault("queue_path", "wats-queue.wal")
	v.SetDefault("retry_interval_ms", 30000)
	v.SetDefault("submit_rule", "")
	v.SetDefault("mode", "active")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("station.name", "")
	v.SetDefault("station.location", "")
	v.SetDefault("station.purpose", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if cfg.MaxWorkers < 1 {
		return nil, fmt.Errorf("max_workers 必须大于 0: %d", cfg.MaxWorkers)
	}
	if cfg.RetryMs < 0 {
		return nil, fmt.Errorf("retry_interval_ms 不能为负数: %d", cfg.RetryMs)
	}
	if _, err := cfg.BuildMode(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
