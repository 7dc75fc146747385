package auth

import (
	"context"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

const (
	DefaultCookieName = "Ableton-Challenge-Response-Token"

	challengePath         = "/api/v1/challenge"
	challengeResponsePath = "/api/v1/challenge-response"
	sshKeyPath            = "/api/v1/ssh"
)

type challengeResponseRequest struct {
	Secret string `json:"secret"`
}

type sshKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

// Client speaks the device challenge-response API. Each call is a single
// HTTP round trip; retrying is left to the caller.
type Client struct {
	client     *resty.Client
	cookieName string
	port       int
}

type Options struct {
	CookieName string
	Port       int
	Timeout    time.Duration
}

func OptionsFromConfig(auth models.AuthConfig, device models.DeviceConfig) Options {
	return Options{
		CookieName: auth.CookieName,
		Port:       device.HTTPPort,
		Timeout:    auth.Timeout,
	}
}

func NewClient(opts Options) *Client {
	if len(opts.CookieName) == 0 {
		opts.CookieName = DefaultCookieName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", common.GetUserAgent("move-installer"))

	return &Client{
		client:     client,
		cookieName: opts.CookieName,
		port:       opts.Port,
	}
}

// RequestChallenge asks the device to display a fresh code.
func (c *Client) RequestChallenge(ctx context.Context, addr netip.Addr) error {
	url := models.BaseURLFor(addr, c.port) + challengePath

	logrus.WithFields(logrus.Fields{
		"url": url,
	}).Debugln("Requesting challenge code")

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{}).
		Post(url)
	if err != nil {
		return models.WrapError(models.KindNetworkError, err, "failed to request challenge")
	}

	if resp.IsError() {
		return models.NewError(models.KindUnexpected,
			"challenge request failed: HTTP %s", statusText(resp))
	}

	return nil
}

// SubmitCode exchanges the six digit code shown on the device for a
// session token.
func (c *Client) SubmitCode(ctx context.Context, addr netip.Addr, code string) (models.SessionToken, error) {
	code = strings.TrimSpace(code)
	if !common.IsChallengeCode(code) {
		return models.SessionToken{}, models.NewError(models.KindInvalidCode,
			"code must be exactly 6 digits")
	}

	url := models.BaseURLFor(addr, c.port) + challengeResponsePath

	logrus.WithFields(logrus.Fields{
		"url": url,
	}).Debugln("Submitting challenge code")

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&challengeResponseRequest{Secret: code}).
		Post(url)
	if err != nil {
		return models.SessionToken{}, models.WrapError(models.KindNetworkError, err,
			"failed to submit code")
	}

	if !isSuccess(resp.StatusCode()) {
		return models.SessionToken{}, models.NewError(models.KindInvalidCode,
			"invalid code: HTTP %s", statusText(resp))
	}

	token, ok := c.tokenFromResponse(resp)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode(),
			"cookie": c.cookieName,
		}).Warnln("Device accepted the code but returned no session cookie")

		return models.SessionToken{}, models.NewError(models.KindTokenMissing,
			"device accepted the code but did not return %s", c.cookieName)
	}

	return token, nil
}

// AuthorizeKey registers publicKey with the device using an authenticated
// session.
func (c *Client) AuthorizeKey(ctx context.Context, addr netip.Addr, token models.SessionToken, publicKey string) error {
	url := models.BaseURLFor(addr, c.port) + sshKeyPath

	logrus.WithFields(logrus.Fields{
		"url": url,
	}).Debugln("Submitting public key")

	resp, err := c.client.R().
		SetContext(ctx).
		SetCookie(&http.Cookie{Name: c.cookieName, Value: token.Value}).
		SetBody(&sshKeyRequest{PublicKey: strings.TrimSpace(publicKey)}).
		Post(url)
	if err != nil {
		return models.WrapError(models.KindNetworkError, err, "failed to submit key")
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewError(models.KindSessionExpired,
			"session expired or invalid: HTTP %s", statusText(resp))
	case http.StatusBadRequest:
		return models.NewError(models.KindMalformedKey,
			"device rejected the key format: HTTP %s", statusText(resp))
	default:
		return models.NewError(models.KindUnexpected,
			"unexpected response: HTTP %s", statusText(resp))
	}
}

func (c *Client) tokenFromResponse(resp *resty.Response) (models.SessionToken, bool) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != c.cookieName || len(cookie.Value) == 0 {
			continue
		}

		token := models.SessionToken{Value: cookie.Value}
		switch {
		case cookie.MaxAge > 0:
			expiry := time.Now().Add(time.Duration(cookie.MaxAge) * time.Second).UTC()
			token.Expiry = &expiry
		case !cookie.Expires.IsZero():
			expiry := cookie.Expires.UTC()
			token.Expiry = &expiry
		}
		return token, true
	}

	// Some firmware versions echo the token as a plain header
	if value := resp.Header().Get(c.cookieName); len(value) > 0 {
		return models.SessionToken{Value: value}, true
	}

	return models.SessionToken{}, false
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// statusText returns "<code> <reason>" followed by the body when present
func statusText(resp *resty.Response) string {
	text := resp.Status()
	if len(text) == 0 {
		text = http.StatusText(resp.StatusCode())
	}
	if body := strings.TrimSpace(string(resp.Body())); len(body) > 0 {
		text += ": " + body
	}
	return text
}
