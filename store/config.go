package store

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	DatabaseName string `envconfig:"CARETRACK_DATABASE_NAME" default:"caretrack"`
	Hosts        string `envconfig:"CARETRACK_STORE_ADDRESSES" default:"localhost"`
	OptParams    string `envconfig:"CARETRACK_STORE_OPT_PARAMS"`
	Password     string `envconfig:"CARETRACK_STORE_PASSWORD"`
	ReplicaSet   string `envconfig:"CARETRACK_STORE_REPLICA_SET"`
	Scheme       string `envconfig:"CARETRACK_STORE_SCHEME" default:"mongodb"`
	Ssl          bool   `envconfig:"CARETRACK_STORE_TLS"`
	User         string `envconfig:"CARETRACK_STORE_USERNAME"`
}

// GetConnectionString assembles the mongo uri. Transactions and change streams
// require a replica set, so ReplicaSet should be set outside of Atlas (mongodb+srv).
func (c *Config) GetConnectionString() (string, error) {
	var cs strings.Builder
	if c.Scheme != "" {
		cs.WriteString(c.Scheme + "://")
	} else {
		cs.WriteString("mongodb://")
	}

	if c.User != "" {
		cs.WriteString(c.User)
		if c.Password != "" {
			cs.WriteString(":" + c.Password)
		}
		cs.WriteString("@")
	}

	if c.Hosts != "" {
		cs.WriteString(c.Hosts)
	} else {
		cs.WriteString("localhost")
	}
	cs.WriteString("/")

	if c.Ssl {
		cs.WriteString("?ssl=true")
	} else {
		cs.WriteString("?ssl=false")
	}

	if c.ReplicaSet != "" {
		cs.WriteString("&replicaSet=" + c.ReplicaSet)
	}
	if c.OptParams != "" {
		cs.WriteString("&" + c.OptParams)
	}
	return cs.String(), nil
}
