package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const callbackPath = "/mirrorcal"

// Client holds the OAuth application credentials shared by every account.
type Client struct {
	oauthCfg *oauth2.Config
}

func NewClient(credJSON []byte) (*Client, error) {
	oauthCfg, err := google.ConfigFromJSON(credJSON, calendar.CalendarEventsScope, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("google: parsing credentials file: %v", err)
	}
	return &Client{
		oauthCfg: oauthCfg,
	}, nil
}

// Gateway returns a gateway acting as the owner of tok.
func (c Client) Gateway(ctx context.Context, tok *oauth2.Token) (*Gateway, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(c.oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("google: creating calendar service: %w", err)
	}
	return NewGateway(svc), nil
}

// Login runs the authorization code flow, receiving the redirect on a local
// server listening on addr.
func (c Client) Login(ctx context.Context, addr string, showURL func(authURL string)) (*oauth2.Token, error) {
	cfg := *c.oauthCfg
	cfg.RedirectURL = "http://" + addr + callbackPath

	state := fmt.Sprintf("mirrorcal-%d", time.Now().UTC().UnixNano())
	showURL(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	mux := http.NewServeMux()
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	var (
		token   *oauth2.Token
		authErr error
	)

	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			go server.Shutdown(context.Background())
		}()

		query := req.URL.Query()
		if query.Get("state") != state {
			authErr = errors.New("oauth link is not valid")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		token, authErr = cfg.Exchange(ctx, query.Get("code"))
		if authErr != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Unable to retrieve token:", authErr)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "All good, you can close this window!")
	})

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	log.WithField("addr", addr).Debug("google: waiting for oauth callback")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}
	if token == nil {
		return nil, ctx.Err()
	}
	return token, nil
}
