package config

// Config 配置主体
type Config struct {
	Server                Server                `mapstructure:"server"`
	DB                    DBConfig              `mapstructure:"database"`
	Redis                 RedisConfig           `mapstructure:"redis"`
	MinIO                 MinIOConfig           `mapstructure:"minio"`
	Elastic               ElasticConfig         `mapstructure:"elastic"`
	Kafka                 KafkaConfig           `mapstructure:"kafka"`
	KafkaChangeConsumer   KafkaChangeConsumer   `mapstructure:"kafka_change_consumer"`
	KafkaProfileConsumer  KafkaProfileConsumer  `mapstructure:"kafka_profile_consumer"`
	Logstash              LogstashConfig        `mapstructure:"logstash"`
	LinkPreview           LinkPreviewConfig     `mapstructure:"link_preview"`
}

// Server Server配置
type Server struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	AttachmentBucket string `mapstructure:"attachment_bucket"`
	UseSSL           bool   `mapstructure:"use_ssl"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address  string         `mapstructure:"address"`
	Username string         `mapstructure:"username"`
	Password string         `mapstructure:"password"`
	Indices  ElasticIndices `mapstructure:"indices"`
}

// ElasticIndices Elastic索引
type ElasticIndices struct {
	ProfileIndex string `mapstructure:"profile_index"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaChangeConsumer 数据变更事件消费者（推送总线的上游）
type KafkaChangeConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// KafkaProfileConsumer 用户资料索引消费者
type KafkaProfileConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// LinkPreviewConfig 链接预览抓取配置
type LinkPreviewConfig struct {
	Enable    bool `mapstructure:"enable"`
	TimeoutMS int  `mapstructure:"timeout_ms"`
}
