package configuration

type Configuration struct {
	HttpAddr string `usage:"HTTP address"`

	Backend string `usage:"storage backend: memory, journal, bolt or redis"`
	Dir     string `usage:"data directory"`
	Schema  string `usage:"type catalog file, empty keeps types in memory"`

	RedisAddr     string `usage:"redis address"`
	RedisPassword string `usage:"redis password"`
	RedisDB       int    `usage:"redis database number"`

	ApiKey    string `usage:"api key, empty disables authentication"`
	ApiSecret string `usage:"api secret"`

	Metrics           bool   `usage:"expose prometheus metrics at /metrics"`
	EnableCompression bool   `usage:"gzip responses"`
	LogLevel          string `usage:"log level: debug, info, warn or error"`

	Version    bool `usage:"show version and exit"`
	ShowBanner bool `usage:"show big banner"`
	ShowConfig bool `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:          "127.0.0.1:8080",
		Backend:           "journal",
		Dir:               "data",
		Schema:            "data/catalog.json",
		RedisAddr:         "127.0.0.1:6379",
		Metrics:           true,
		EnableCompression: true,
		LogLevel:          "info",
		ShowBanner:        true,
		ShowConfig:        false,
	}
}
