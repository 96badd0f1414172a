package client

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/friendsofgo/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ataboo/go-ata-login/pkg/logging"
)

const (
	PathLogin          = ""
	PathAuth           = "auth"
	PathLogout         = "logout"
	PathChangePassword = "changepassword"
	PathRegister       = "register"

	HeaderRequestID = "X-Request-ID"

	formContentType = "application/x-www-form-urlencoded"
	maxErrorBody    = 4096
)

// Client issues the cookie-authenticated requests of the login front end.
// Every call is a single attempt; cancellation comes only from ctx.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger logrus.FieldLogger
}

// New creates a client for the login service mounted at baseURL. A nil jar gets
// an in-memory one and a nil logger discards output.
func New(baseURL string, jar http.CookieJar, logger logrus.FieldLogger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse base url")
	}

	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported base url scheme %q", base.Scheme)
	}

	base.RawQuery = ""
	base.Fragment = ""

	// endpoints resolve like ./auth against the page, so the base is a directory
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create cookie jar")
		}
	}

	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		base:   base,
		http:   &http.Client{Jar: jar},
		logger: logger,
	}, nil
}

// BaseURL returns the normalised base the endpoints are resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Endpoint resolves a path relative to the base url.
func (c *Client) Endpoint(path string) *url.URL {
	return c.base.ResolveReference(&url.URL{Path: path})
}

// CheckSession reports whether the cookie jar holds a valid session.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	status, _, err := c.do(ctx, "check session", http.MethodGet, PathAuth, nil, false)
	if err != nil {
		return false, err
	}

	return status == http.StatusOK, nil
}

// CheckAccess checks the session against the given privileges.
func (c *Client) CheckAccess(ctx context.Context, privileges ...string) (AccessResult, error) {
	path := PathAuth
	for _, p := range privileges {
		path += "/" + url.PathEscape(p)
	}

	status, _, err := c.do(ctx, "check access", http.MethodGet, path, nil, false)
	if err != nil {
		return AccessUnauthenticated, err
	}

	switch status {
	case http.StatusOK:
		return AccessGranted, nil
	case http.StatusForbidden:
		return AccessForbidden, nil
	default:
		return AccessUnauthenticated, nil
	}
}

// Login posts the credentials. Any status but 200 is a rejection.
func (c *Client) Login(ctx context.Context, creds Credentials) (bool, error) {
	form := url.Values{}
	form.Set("user", creds.User)
	form.Set("password", creds.Password)

	status, _, err := c.do(ctx, "login", http.MethodPost, PathLogin, form, false)
	if err != nil {
		return false, err
	}

	return status == http.StatusOK, nil
}

func (c *Client) Logout(ctx context.Context) (bool, error) {
	status, _, err := c.do(ctx, "logout", http.MethodGet, PathLogout, nil, false)
	if err != nil {
		return false, err
	}

	return status == http.StatusOK, nil
}

func (c *Client) ChangePassword(ctx context.Context, req PasswordChangeRequest) (bool, error) {
	form := url.Values{}
	form.Set("user", req.User)
	form.Set("old-password", req.OldPassword)
	form.Set("new-password", req.NewPassword)

	status, _, err := c.do(ctx, "change password", http.MethodPost, PathChangePassword, form, false)
	if err != nil {
		return false, err
	}

	return status == http.StatusOK, nil
}

// Register posts a registration. On refusal the response body is the error tag.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (RegistrationResult, error) {
	form := url.Values{}
	form.Set("user", req.User)
	form.Set("password", req.Password)
	form.Set("invitation", req.Invitation)

	status, body, err := c.do(ctx, "register", http.MethodPost, PathRegister, form, true)
	if err != nil {
		return RegistrationResult{Error: RegistrationErrorUnknown}, err
	}

	if status == http.StatusOK {
		return RegistrationResult{Success: true}, nil
	}

	return RegistrationResult{Error: ParseRegistrationError(body)}, nil
}

func (c *Client) do(ctx context.Context, op string, method string, path string, form url.Values, readBody bool) (int, string, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	target := c.Endpoint(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed to build %s request", op)
	}

	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	if form != nil {
		req.Header.Set("Content-Type", formContentType)
	}

	log := c.logger.WithFields(logrus.Fields{
		"op":         op,
		"method":     method,
		"url":        target.String(),
		"request_id": requestID,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return 0, "", errors.Wrapf(err, "%s request failed", op)
	}
	defer resp.Body.Close()

	text := ""
	if readBody && resp.StatusCode != http.StatusOK {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			log.WithError(err).Warn("failed to read response body")
			return resp.StatusCode, "", errors.Wrapf(err, "failed to read %s response", op)
		}
		text = string(raw)
	} else {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	}

	log.WithField("status", resp.StatusCode).Debug("request completed")

	return resp.StatusCode, text, nil
}
