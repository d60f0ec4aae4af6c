// internal/infra/secret/provider_sm.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var (
	ErrNotConfigured = errors.New("secret: provider not configured")
	ErrEmptyPayload  = errors.New("secret: empty payload")
)

// ProviderSM reads secret payloads from Google Secret Manager.
type ProviderSM struct {
	SM        *secretmanager.Client
	ProjectID string
	// Version defaults to "latest".
	Version string
}

func NewProviderSM(sm *secretmanager.Client, projectID string) *ProviderSM {
	return &ProviderSM{SM: sm, ProjectID: strings.TrimSpace(projectID), Version: "latest"}
}

// Get returns the trimmed payload of secret.
// secret may be a bare id or a full "projects/.../secrets/..." resource name.
func (p *ProviderSM) Get(ctx context.Context, secret string) (string, error) {
	if p == nil || p.SM == nil {
		return "", ErrNotConfigured
	}

	name, err := versionName(p.ProjectID, secret, p.Version)
	if err != nil {
		return "", err
	}

	resp, err := p.SM.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secret: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("%w (%s)", ErrEmptyPayload, name)
	}

	v := strings.TrimSpace(string(resp.Payload.Data))
	if v == "" {
		return "", fmt.Errorf("%w (%s)", ErrEmptyPayload, name)
	}
	return v, nil
}

func versionName(projectID, secret, version string) (string, error) {
	s := strings.Trim(strings.TrimSpace(secret), "/")
	if s == "" {
		return "", errors.New("secret: secret name is empty")
	}
	ver := strings.TrimSpace(version)
	if ver == "" {
		ver = "latest"
	}

	if strings.HasPrefix(s, "projects/") {
		if strings.Contains(s, "/versions/") {
			return s, nil
		}
		return s + "/versions/" + ver, nil
	}

	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return "", errors.New("secret: projectID is empty")
	}
	return "projects/" + prj + "/secrets/" + s + "/versions/" + ver, nil
}
