// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	appcfg "marketplace/internal/infra/config"
	"marketplace/internal/infra/database"
	firestoreinfra "marketplace/internal/infra/firestore"
	"marketplace/internal/infra/secret"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore/FirebaseAuth/SecretManager/Postgres)
// - owns the config it was built from
//
// IMPORTANT:
// Infra must NOT depend on routers, handlers, or usecases.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string
	Logger    *zap.Logger

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	Postgres      *database.DB
}

// NewInfra initializes shared infra.
// Firestore is strict (carts live there). Postgres is strict when it is the stock backend.
// Firebase Auth and Secret Manager are best-effort (warn + continue); protected routes fail closed.
func NewInfra(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("shared.infra: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("shared.infra")

	inf := &Infra{
		Config:    cfg,
		ProjectID: cfg.FirestoreProjectID,
		Logger:    logger,
	}

	// Credentials file (optional; mainly for local dev)
	credFile := cfg.CredentialsFile()
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Info("using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	} else {
		log.Info("using Application Default Credentials")
	}

	// clients retain ctx for token refresh; never hand them a ctx canceled on Wait
	var g errgroup.Group

	// 1) Firestore (strict)
	g.Go(func() error {
		c, err := firestoreinfra.NewClient(ctx, inf.ProjectID, credFile)
		if err != nil {
			return fmt.Errorf("shared.infra: %w", err)
		}
		inf.Firestore = c
		log.Info("firestore connected", zap.String("project", inf.ProjectID))
		return nil
	})

	// 2) Firebase Auth (best-effort; skipped in dev mode)
	if !cfg.AuthDisabled {
		g.Go(func() error {
			app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOpts...)
			if err != nil {
				log.Warn("firebase app init failed", zap.Error(err))
				return nil
			}
			authClient, err := app.Auth(ctx)
			if err != nil {
				log.Warn("firebase auth init failed", zap.Error(err))
				return nil
			}
			inf.FirebaseAuth = authClient
			log.Info("firebase auth initialized")
			return nil
		})
	} else {
		log.Warn("AUTH_DISABLED is set; buyer identity comes from the X-Avatar-Id header")
	}

	// 3) Secret Manager (only when a secret has to be resolved)
	if cfg.DatabaseURLSecret != "" && cfg.DatabaseURL == "" {
		g.Go(func() error {
			sm, err := secretmanager.NewClient(ctx, clientOpts...)
			if err != nil {
				log.Warn("secretmanager.NewClient failed", zap.Error(err))
				return nil
			}
			inf.SecretManager = sm
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_ = inf.Close()
		return nil, err
	}

	// 4) Postgres (strict when selected)
	if cfg.StockBackend == appcfg.StockBackendPostgres {
		dsn, err := inf.resolveDatabaseURL(ctx)
		if err != nil {
			_ = inf.Close()
			return nil, err
		}
		db, err := database.NewConnection(ctx, dsn)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.Postgres = db
		log.Info("postgres connected")
	}

	return inf, nil
}

func (i *Infra) resolveDatabaseURL(ctx context.Context) (string, error) {
	if u := strings.TrimSpace(i.Config.DatabaseURL); u != "" {
		return u, nil
	}
	if i.SecretManager == nil {
		return "", fmt.Errorf("shared.infra: DATABASE_URL_SECRET=%s set but Secret Manager is unavailable", i.Config.DatabaseURLSecret)
	}
	v, err := secret.NewProviderSM(i.SecretManager, i.ProjectID).Get(ctx, i.Config.DatabaseURLSecret)
	if err != nil {
		return "", fmt.Errorf("shared.infra: resolve database url: %w", err)
	}
	return v, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Postgres != nil {
		errs = append(errs, i.Postgres.Close())
	}
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
	}
	return errors.Join(errs...)
}

func redactPath(p string) string {
	// Keep only the last segment
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
