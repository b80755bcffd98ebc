// Package google wraps the Calendar, Gmail and Sheets APIs used by formroute.
package google

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Credentials selects how the API clients authenticate.
type Credentials struct {
	// File is a service account or authorized user JSON key.
	File string
	// Subject is impersonated through domain-wide delegation when set.
	Subject string
	Timeout time.Duration
}

// ClientOptions returns the request options for a service restricted to scopes.
func (c Credentials) ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error) {
	if c.File == "" {
		return []option.ClientOption{option.WithScopes(scopes...)}, nil
	}
	if c.Subject == "" {
		return []option.ClientOption{
			option.WithCredentialsFile(c.File),
			option.WithScopes(scopes...),
		}, nil
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	jwt.Subject = c.Subject
	return []option.ClientOption{option.WithTokenSource(jwt.TokenSource(ctx))}, nil
}

func (c Credentials) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
