// Command oauth-init runs the installed-app OAuth flow once and saves the
// token the journal worker uses when no service account is configured.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"

	"familyfinance/internal/cli"
	"familyfinance/internal/config"
	"familyfinance/internal/log"
	gsheet "familyfinance/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cfg.Logger(log.ComponentSheets)

	oauthCfg, err := gsheet.OAuthConfig(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		cli.Fatal(logger, "Failed to load OAuth client", err)
	}

	// The OAuth client must list this URI among its authorized redirect URIs
	oauthCfg.RedirectURL = "http://localhost:" + cfg.OAuthRedirectPort + "/callback"

	codeCh := make(chan string, 1)
	errCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			select {
			case errCh <- errStr:
			default:
			}
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	srv := &http.Server{Addr: ":" + cfg.OAuthRedirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	defer func() { _ = srv.Close() }()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	var code string
	select {
	case code = <-codeCh:
	case errStr := <-errCh:
		logger.Error("Authorization denied", log.FieldError, errStr)
		os.Exit(1)
	case <-time.After(5 * time.Minute):
		logger.Error("Authorization timed out")
		os.Exit(1)
	case <-sigChan:
		logger.Error("Interrupted")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		logger.Error("Token exchange failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	out := cfg.GoogleOAuthTokenFile
	if out == "" {
		out = "token.json"
	}
	if err := gsheet.SaveToken(out, tok); err != nil {
		logger.Error("Failed to save token", log.FieldError, err.Error(), "path", out)
		os.Exit(1)
	}
	fmt.Printf("Saved token to %s\n", out)
}
