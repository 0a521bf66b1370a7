// Package credentials resolves secret references such as remote.api_key.
//
// A reference is either a literal value or one of:
//
//	pass:<entry>  first line of a password-store entry, read from the file
//	              directory instead when pass is not installed
//	file:<name>   contents of ~/.syntrafit/credentials/<name> (mode 0600)
//	env:<NAME>    an environment variable
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/tomlfile"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const credentialsDirName = "credentials"

type Resolver struct {
	pass   ports.CredentialSource
	dir    ports.CredentialSource
	getenv func(string) string
}

func NewResolver(pass ports.CredentialSource, dir ports.CredentialSource) *Resolver {
	return &Resolver{pass: pass, dir: dir, getenv: os.Getenv}
}

// NewDefaultResolver uses pass with ~/.syntrafit/credentials as the file
// directory.
func NewDefaultResolver() (*Resolver, error) {
	root, err := tomlfile.DefaultPath(credentialsDirName)
	if err != nil {
		return nil, err
	}

	return NewResolver(NewPass(), NewDir(root)), nil
}

func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(ref), ":")
	if !ok {
		return ref, nil
	}

	switch scheme {
	case "pass":
		value, err := r.pass.Lookup(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrPassUnavailable) {
			return "", err
		}
		fallback, fallbackErr := r.dir.Lookup(ctx, key)
		if fallbackErr != nil {
			return "", fmt.Errorf("%w; file fallback: %w", err, fallbackErr)
		}
		return fallback, nil
	case "file":
		return r.dir.Lookup(ctx, key)
	case "env":
		value := strings.TrimSpace(r.getenv(key))
		if value == "" {
			return "", fmt.Errorf("environment variable %s is empty", key)
		}
		return value, nil
	default:
		return ref, nil
	}
}
