package google

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config selects which clients to build.
type Config struct {
	ProjectID string
	Source    Source
	// ReadOnly narrows the Sheets scope.
	ReadOnly      bool
	WithAuth      bool
	WithFirestore bool
}

// Clients holds initialized Google clients. Unrequested clients stay nil.
type Clients struct {
	Sheets    *sheets.Service
	Drive     *drive.Service
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeClients resolves credentials and sets up the clients. When the
// source has nothing, Application Default Credentials are used.
func InitializeClients(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Clients, error) {
	var creds []option.ClientOption
	if cfg.Source != nil {
		b, err := cfg.Source.Credentials(ctx)
		switch {
		case err == nil:
			creds = append(creds, option.WithCredentialsJSON(b))
		case errors.Is(err, ErrNoCredentials):
		default:
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
	}
	creds = append(creds, extra...)

	sheetsScope := sheets.SpreadsheetsScope
	if cfg.ReadOnly {
		sheetsScope = sheets.SpreadsheetsReadonlyScope
	}
	scoped := append([]option.ClientOption{option.WithScopes(sheetsScope, drive.DriveReadonlyScope)}, creds...)

	c := &Clients{}
	var err error
	if c.Sheets, err = sheets.NewService(ctx, scoped...); err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	if c.Drive, err = drive.NewService(ctx, scoped...); err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}

	if !cfg.WithAuth && !cfg.WithFirestore {
		return c, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, creds...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	if cfg.WithAuth {
		if c.Auth, err = app.Auth(ctx); err != nil {
			return nil, fmt.Errorf("firebase auth: %w", err)
		}
	}
	if cfg.WithFirestore {
		if c.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
	}
	return c, nil
}

// Close closes the Firestore client.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
