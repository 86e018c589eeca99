// Package cloud initializes the Firebase application shared by push delivery and token verification.
package cloud

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type Config struct {
	ProjectId string `envconfig:"CARETRACK_FIREBASE_PROJECT_ID"`
	// CredentialsFile is optional, application default credentials are used when empty
	CredentialsFile string `envconfig:"CARETRACK_FIREBASE_CREDENTIALS_FILE"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewApp(cfg *Config, logger *zap.SugaredLogger) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var appConfig *firebase.Config
	if cfg.ProjectId != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectId}
	}

	app, err := firebase.NewApp(context.Background(), appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	logger.Infow("initialized firebase app", "projectId", cfg.ProjectId)
	return app, nil
}
