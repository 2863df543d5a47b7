package config

// DefaultClientGatewayURL is the public Safe client gateway.
const DefaultClientGatewayURL = "https://safe-client.gnosis.io"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.safecheck",
		Services: ServicesConfig{
			ClientGateway: DefaultClientGatewayURL,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			RatePerSecond:  5,
			Burst:          10,
		},
		Check: CheckConfig{
			TimeoutSeconds: 60,
		},
		Token: TokenConfig{
			Backend: TokenBackendFile,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.safecheck/safecheck.log",
		},
	}
}
