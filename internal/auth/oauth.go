package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// ErrNoVerifiedEmail means the GitHub account has no verified email we can
// match against a registered user.
var ErrNoVerifiedEmail = errors.New("auth: GitHub account has no verified email")

// GitHubUser identifies the account that completed the GitHub consent screen.
type GitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"` // empty when hidden in GitHub settings; filled from /user/emails
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider lets an existing member sign in with GitHub instead of a
// password. The account is matched by email, so a GitHub user whose address
// was never registered gets nothing: registration needs a role and GitHub
// has no notion of mentor or mentee.
//
//	/auth/github/login     → 307 to github.com/login/oauth/authorize?state=...
//	(member approves)
//	/auth/github/callback  → code + state back; Exchange → GET /user (+ /user/emails)
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

// NewGitHubProvider configures the OAuth app. callbackURL is compared by
// GitHub against the app's registered callback and must match it exactly.
// The scopes ask for the public profile and the email list.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Endpoint:     github.Endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}
	return &GitHubProvider{config: cfg, apiBase: githubAPI}
}

// AuthURL is where the login handler redirects. state comes back unchanged
// on the callback and is checked against the handler's cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the GitHub identity. Email is
// always set on success: if /user hides it, the primary verified address
// from /user/emails is used instead.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: GitHub code exchange: %w", err)
	}
	client := p.config.Client(ctx, tok)

	var ghUser GitHubUser
	if err := getJSON(ctx, client, p.apiBase+"/user", &ghUser); err != nil {
		return nil, err
	}
	if ghUser.ID == 0 {
		return nil, errors.New("auth: GitHub /user response has no id")
	}

	if ghUser.Email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, p.apiBase+"/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				ghUser.Email = e.Email
				break
			}
		}
		if ghUser.Email == "" {
			return nil, ErrNoVerifiedEmail
		}
	}

	ghUser.Email = strings.ToLower(strings.TrimSpace(ghUser.Email))
	return &ghUser, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: GitHub %s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding GitHub %s response: %w", url, err)
	}
	return nil
}
