// Package cookiestore keeps the session cookie between CLI runs, the way a
// browser keeps it between page loads.
package cookiestore

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/friendsofgo/errors"
	"gopkg.in/yaml.v3"
)

type entry struct {
	Origin   string    `yaml:"origin"`
	Name     string    `yaml:"name"`
	Value    string    `yaml:"value"`
	Path     string    `yaml:"path,omitempty"`
	Domain   string    `yaml:"domain,omitempty"`
	Expires  time.Time `yaml:"expires,omitempty"`
	Secure   bool      `yaml:"secure,omitempty"`
	HttpOnly bool      `yaml:"http_only,omitempty"`
}

func (e entry) key() string {
	host := ""
	if u, err := url.Parse(e.Origin); err == nil {
		host = u.Host
	}

	return host + "|" + e.Domain + "|" + e.Path + "|" + e.Name
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

// Store is an http.CookieJar that can be saved to and loaded from a YAML file.
type Store struct {
	mu      sync.Mutex
	path    string
	jar     *cookiejar.Jar
	entries map[string]entry
	now     func() time.Time
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	s := &Store{
		path:    path,
		jar:     jar,
		entries: make(map[string]entry),
		now:     time.Now,
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cookie file %s", path)
	}

	saved := []entry{}
	if err := yaml.Unmarshal(raw, &saved); err != nil {
		return nil, errors.Wrapf(err, "failed to parse cookie file %s", path)
	}

	now := s.now()
	for _, e := range saved {
		if e.expired(now) {
			continue
		}

		origin, err := url.Parse(e.Origin)
		if err != nil {
			continue
		}

		s.entries[e.key()] = e
		s.jar.SetCookies(origin, []*http.Cookie{e.cookie()})
	}

	return s, nil
}

func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.jar.SetCookies(u, cookies)

	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cookies {
		e := entry{
			Origin:   origin.String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}

		switch {
		case c.MaxAge < 0:
			e.Expires = now
		case c.MaxAge > 0:
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		default:
			e.Expires = c.Expires
		}

		if e.expired(now) {
			delete(s.entries, e.key())
			continue
		}

		s.entries[e.key()] = e
	}
}

func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	return s.jar.Cookies(u)
}

// Save writes the live cookies to the store's file, readable by the owner only.
func (s *Store) Save() error {
	s.mu.Lock()
	now := s.now()
	live := []entry{}
	for _, e := range s.entries {
		if !e.expired(now) {
			live = append(live, e)
		}
	}
	s.mu.Unlock()

	raw, err := yaml.Marshal(live)
	if err != nil {
		return errors.Wrap(err, "failed to encode cookies")
	}

	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return errors.Wrapf(err, "failed to write cookie file %s", s.path)
	}

	return nil
}

// Clear expires every stored cookie and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	for k, e := range s.entries {
		if origin, err := url.Parse(e.Origin); err == nil {
			gone := e.cookie()
			gone.MaxAge = -1
			s.jar.SetCookies(origin, []*http.Cookie{gone})
		}
		delete(s.entries, k)
	}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove cookie file %s", s.path)
	}

	return nil
}

func (e entry) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     e.Name,
		Value:    e.Value,
		Path:     e.Path,
		Domain:   e.Domain,
		Expires:  e.Expires,
		Secure:   e.Secure,
		HttpOnly: e.HttpOnly,
	}
}
