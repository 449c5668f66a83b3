package metrics

// Provider selects a metric reader.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otel_collector"
)

// Config collects the readers to install.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

// ProviderCfg configures one reader.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// NewOtelCollectorConfig returns a push reader config for an OTLP collector.
func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

type OptionFn func(config Config) Config

func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}
