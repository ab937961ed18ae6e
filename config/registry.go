package config

type RegistryConfig struct {
	DonePolicy string `mapstructure:"done_policy"`
}
