package ports

import "context"

// CredentialSource looks up a secret by key. It is read only: credentials are
// provisioned outside subs.
type CredentialSource interface {
	Lookup(ctx context.Context, key string) (string, error)
}
