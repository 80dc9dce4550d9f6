package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	Cryptlex   Cryptlex   `envPrefix:"CRYPTLEX_"`
	FastSpring FastSpring `envPrefix:"FASTSPRING_"`
	Paddle     Paddle     `envPrefix:"PADDLE_"`
}

type Cryptlex struct {
	BaseApiURL  string `env:"WEB_API_BASE_URL"`
	AccessToken string `env:"ACCESS_TOKEN"`
}

type FastSpring struct {
	HMACSecret string `env:"HMAC_SECRET"`
}

type Paddle struct {
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	// Deliveries older than this many seconds are rejected as replays.
	SignatureMaxAge int `env:"SIGNATURE_MAX_AGE" envDefault:"5"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
