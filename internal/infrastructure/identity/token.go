package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/vid-verifier/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const assertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// ObjectReader reads a secret stored as an object (s3://bucket/key references).
type ObjectReader interface {
	Read(ctx context.Context, bucket, key string) ([]byte, error)
}

// AssertionSigner produces a signed client assertion for the given audience.
type AssertionSigner interface {
	Sign(audience string) (string, error)
}

// Options configures a TokenProvider. Exactly one credential is used, in this
// order of preference: Signer, Secret, SecretRef.
type Options struct {
	AuthorityHost string
	TenantID      string
	ClientID      string
	Scope         string
	Secret        string
	SecretRef     string
	Objects       ObjectReader
	Signer        AssertionSigner
	HTTPClient    *http.Client
}

// TokenProvider acquires app-only access tokens for the request service via the
// client credentials grant. Tokens are cached until shortly before expiry.
type TokenProvider struct {
	opts     Options
	tokenURL string

	mu     sync.Mutex
	secret string
	token  *oauth2.Token
}

func NewTokenProvider(opts Options) *TokenProvider {
	host := strings.TrimRight(opts.AuthorityHost, "/")
	return &TokenProvider{
		opts:     opts,
		tokenURL: fmt.Sprintf("%s/%s/oauth2/v2.0/token", host, opts.TenantID),
	}
}

// AccessToken returns a bearer token, fetching a new one with ctx when the
// cached one is missing or about to expire. Every failure wraps domain.ErrUpstreamAuth.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token.Valid() {
		return p.token.AccessToken, nil
	}

	cc, err := p.config(ctx)
	if err != nil {
		return "", fmt.Errorf("prepare token request: %v: %w", err, domain.ErrUpstreamAuth)
	}
	if p.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.opts.HTTPClient)
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire token: %v: %w", err, domain.ErrUpstreamAuth)
	}
	p.token = tok
	return tok.AccessToken, nil
}

// config builds the grant for one token request. A signed assertion is made
// fresh each time since it is short lived. The secret is resolved on first use
// so the process can start before the secret store is reachable.
func (p *TokenProvider) config(ctx context.Context) (*clientcredentials.Config, error) {
	cc := &clientcredentials.Config{
		ClientID:  p.opts.ClientID,
		TokenURL:  p.tokenURL,
		Scopes:    []string{p.opts.Scope},
		AuthStyle: oauth2.AuthStyleInParams,
	}

	if p.opts.Signer != nil {
		assertion, err := p.opts.Signer.Sign(p.tokenURL)
		if err != nil {
			return nil, err
		}
		cc.EndpointParams = url.Values{
			"client_assertion_type": {assertionType},
			"client_assertion":      {assertion},
		}
		return cc, nil
	}

	if p.secret == "" {
		secret := p.opts.Secret
		if secret == "" {
			s, err := p.resolveSecret(ctx, p.opts.SecretRef)
			if err != nil {
				return nil, err
			}
			secret = s
		}
		p.secret = secret
	}
	cc.ClientSecret = p.secret
	return cc, nil
}

func (p *TokenProvider) resolveSecret(ctx context.Context, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || ref == "" {
		return "", fmt.Errorf("invalid secret reference %q", ref)
	}
	var raw []byte
	switch u.Scheme {
	case "file":
		raw, err = os.ReadFile(u.Host + u.Path)
	case "s3":
		if p.opts.Objects == nil {
			return "", fmt.Errorf("s3 secret reference without an s3 reader")
		}
		raw, err = p.opts.Objects.Read(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return "", fmt.Errorf("unsupported secret reference scheme %q", u.Scheme)
	}
	if err != nil {
		return "", fmt.Errorf("read client secret: %w", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("client secret at %q is empty", ref)
	}
	return secret, nil
}
