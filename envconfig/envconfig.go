package envconfig

import (
	"github.com/caarlos0/env/v6"
)

type DecoderServiceEnvConfig struct {
	DictionaryPath string `env:"DICTIONARY_PATH,notEmpty"`
	ClickHouseDB   string `env:"CLICKHOUSE_DATABASE_URL"`
	NatsConn       string `env:"NATS"`
	Host           string `env:"HOST" envDefault:"0.0.0.0"`
	Port           string `env:"PORT" envDefault:"13400"`
	DTCStorePath   string `env:"DTC_STORE_PATH" envDefault:"dtc_registry.db"`
}

func ReadDecoderServiceEnv() (*DecoderServiceEnvConfig, error) {
	cfg := &DecoderServiceEnvConfig{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

type SimulatorEnvConfig struct {
	ServerAddr string `env:"SERVER_ADDR" envDefault:"127.0.0.1:13400"`
	ECU        string `env:"ECU" envDefault:"BECM"`
	Interval   int    `env:"INTERVAL_MS" envDefault:"1000"`
}

func ReadSimulatorEnv() (*SimulatorEnvConfig, error) {
	cfg := &SimulatorEnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
