package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ResolveCredential fills Feed.APIKey from AWS Parameter Store when running in
// prod without an explicit key, then validates the feed section.
func (c *Config) ResolveCredential(ctx context.Context) error {
	if strings.TrimSpace(c.Feed.APIKey) == "" && c.Log.Environment == "prod" && c.Feed.APIKeyParameter != "" {
		value, err := getParameterStoreValue(ctx, c.Feed.APIKeyParameter, true)
		if err != nil {
			return fmt.Errorf("%w: parameter %s: %v", ErrMissingCredential, c.Feed.APIKeyParameter, err)
		}
		c.Feed.APIKey = value
	}
	return c.Feed.Validate()
}

func getParameterStoreValue(ctx context.Context, parameterName string, decrypt bool) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return "", fmt.Errorf("get parameter: %w", err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", errors.New("parameter has no value")
	}

	return *result.Parameter.Value, nil
}
