package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig builds the installed-app OAuth config for the Sheets scope from
// a client secret, inline or read from file.
func OAuthConfig(clientJSON, clientFile string) (*oauth2.Config, error) {
	data, err := readInlineOrFile(clientJSON, clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	if data == nil {
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	cfg, err := oauthgoogle.ConfigFromJSON(data, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// LoadToken decodes a token saved by SaveToken, inline or from file
func LoadToken(tokenJSON, tokenFile string) (*oauth2.Token, error) {
	data, err := readInlineOrFile(tokenJSON, tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if data == nil {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token has neither access nor refresh token")
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func oauthTokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	conf, err := OAuthConfig(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	return conf.TokenSource(ctx, tok), nil
}

// readInlineOrFile returns nil, nil when neither is set
func readInlineOrFile(inline, file string) ([]byte, error) {
	if inline = strings.TrimSpace(inline); inline != "" {
		return []byte(inline), nil
	}
	if file = strings.TrimSpace(file); file == "" {
		return nil, nil
	}
	return os.ReadFile(file)
}
