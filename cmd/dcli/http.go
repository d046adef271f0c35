package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/NeuralEnsemble/download/domain"
)

const (
	// xsrfTokenKey ...
	xsrfTokenKey = "X-XSRF-TOKEN"
	// xsrfCookieKey ...
	xsrfCookieKey = "XSRF-TOKEN"
)

type credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// Client for the admin reporting API
type Client struct {
	user     string
	password string
	server   string
	c        *http.Client
}

// New client for the given server
func New(user, password, server string, insecure bool) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
	}
	return &Client{
		user:     user,
		password: password,
		server:   server,
		c:        &http.Client{Jar: jar, Transport: tr},
	}, nil
}

func (c *Client) xsrfToken() string {
	u, err := url.Parse(c.server)
	if err != nil {
		return ""
	}
	for _, cookie := range c.c.Jar.Cookies(u) {
		if cookie.Name == xsrfCookieKey {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) do(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(b)
	}
	req, err := http.NewRequest(method, c.server+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token := c.xsrfToken(); token != "" {
		req.Header.Set(xsrfTokenKey, token)
	}
	resp, err := c.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed - %v: %s", method, path, resp.StatusCode, string(b))
	}
	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Login retrieves the XSRF cookie and creates a session
func (c *Client) Login() (*domain.User, error) {
	// A GET first to pick up the XSRF cookie - the 401 is expected
	_ = c.do("GET", "/admin/user", nil, nil)
	u := &domain.User{}
	err := c.do("POST", "/admin/login", &credentials{User: c.user, Password: c.password}, u)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Stats retrieves the aggregate totals
func (c *Client) Stats(reference, country string) (*domain.Stats, error) {
	s := &domain.Stats{}
	err := c.do("GET", "/admin/stats?"+statsQuery(reference, country), nil, s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Countries retrieves the per country breakdown
func (c *Client) Countries() ([]domain.CountryCount, error) {
	var res []domain.CountryCount
	err := c.do("GET", "/admin/countries", nil, &res)
	return res, err
}

// Requests retrieves the download requests with their counts
func (c *Client) Requests(reference, country string) ([]domain.RequestSummary, error) {
	var res []domain.RequestSummary
	err := c.do("GET", "/admin/requests?"+statsQuery(reference, country), nil, &res)
	return res, err
}

// DownloadLog retrieves the raw download log
func (c *Client) DownloadLog(reference string) ([]domain.Download, error) {
	var res []domain.Download
	err := c.do("GET", "/admin/downloads?"+statsQuery(reference, ""), nil, &res)
	return res, err
}

type userDetails struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Type     domain.UserType `json:"type"`
}

// SetUser creates or updates an admin user
func (c *Client) SetUser(u *userDetails) (*domain.User, error) {
	res := &domain.User{}
	err := c.do("POST", "/admin/user", u, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func statsQuery(reference, country string) string {
	v := url.Values{}
	if reference != "" {
		v.Set("reference", reference)
	}
	if country != "" {
		v.Set("country", country)
	}
	return v.Encode()
}
