package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	Upload      Upload        `yaml:"upload"`
	Services    Services      `yaml:"services"`
	Auth        Auth          `yaml:"auth"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type Upload struct {
	// RootDir is the durable storage root; transcoded takes land under
	// <RootDir>/users/<userID>/.
	RootDir          string        `yaml:"root_dir"`
	FFmpegPath       string        `yaml:"ffmpeg_path"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout"`
}

type Services struct {
	ScoringURL       string        `yaml:"scoring_url"`
	ScoringTimeout   time.Duration `yaml:"scoring_timeout"`
	KeyDetectURL     string        `yaml:"keydetect_url"`
	SeparationURL    string        `yaml:"separation_url"`
	SeparationWindow time.Duration `yaml:"separation_window"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("upload.ffmpeg_path", "ffmpeg")
	viper.SetDefault("upload.root_dir", "data/uploads")
	viper.SetDefault("upload.transcode_timeout", "2m")
	viper.SetDefault("services.scoring_timeout", "60s")
	viper.SetDefault("services.separation_window", "5m")
	viper.SetDefault("auth.token_ttl", "72h")
	viper.SetDefault("server.workers", 4)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		Kind:         viper.GetString("rabbitmq_kind"),
		ExchangeName: viper.GetString("rabbitmq_exchange"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Upload: Upload{
			RootDir:          viper.GetString("upload.root_dir"),
			FFmpegPath:       viper.GetString("upload.ffmpeg_path"),
			TranscodeTimeout: viper.GetDuration("upload.transcode_timeout"),
		},
		Services: Services{
			ScoringURL:       viper.GetString("services.scoring_url"),
			ScoringTimeout:   viper.GetDuration("services.scoring_timeout"),
			KeyDetectURL:     viper.GetString("services.keydetect_url"),
			SeparationURL:    viper.GetString("services.separation_url"),
			SeparationWindow: viper.GetDuration("services.separation_window"),
		},
		Auth: Auth{
			JWTSecret: viper.GetString("auth.jwt_secret"),
			TokenTTL:  viper.GetDuration("auth.token_ttl"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
