package config

type Config struct {
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	SessionSecret string
	AnthropicKey  string
	AdminAPIKey   string
	Environment   string
}
