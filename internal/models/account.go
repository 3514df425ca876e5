package models

import (
	"fmt"
	"strings"
)

// BackendType is the kind of remote service an account belongs to.
type BackendType string

const (
	BackendTwitter  BackendType = "twitter"
	BackendFanfou   BackendType = "fanfou"
	BackendMastodon BackendType = "mastodon"
)

// BackendTypes lists every supported backend.
var BackendTypes = []BackendType{BackendTwitter, BackendFanfou, BackendMastodon}

// ParseBackendType maps a stored or user-supplied backend name to a [BackendType].
//
// Unrecognized names resolve to [BackendTwitter], the default backend.
func ParseBackendType(s string) BackendType {
	switch BackendType(strings.ToLower(strings.TrimSpace(s))) {
	case BackendFanfou:
		return BackendFanfou
	case BackendMastodon:
		return BackendMastodon
	default:
		return BackendTwitter
	}
}

func (b BackendType) String() string { return string(b) }

// AccountKey identifies an account (or any user) by id and host, rendered as "id@host".
type AccountKey struct {
	ID   string `json:"id"`
	Host string `json:"host,omitempty"`
}

// ParseAccountKey parses "id@host" or a bare "id".
//
// The last '@' separates the host so ids containing '@' survive.
func ParseAccountKey(s string) (AccountKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AccountKey{}, fmt.Errorf("empty account key")
	}

	idx := strings.LastIndex(s, "@")
	if idx < 0 {
		return AccountKey{ID: s}, nil
	}

	key := AccountKey{ID: s[:idx], Host: s[idx+1:]}
	if key.ID == "" {
		return AccountKey{}, fmt.Errorf("account key %q has no id", s)
	}
	return key, nil
}

func (k AccountKey) String() string {
	if k.Host == "" {
		return k.ID
	}
	return k.ID + "@" + k.Host
}

// IsZero reports whether the key is unset.
func (k AccountKey) IsZero() bool { return k.ID == "" }

// UserKey identifies a remote user; it has the same shape as an [AccountKey].
type UserKey = AccountKey

// Account is an authenticated identity on one backend.
type Account struct {
	Key         AccountKey
	Type        BackendType
	APIURL      string // API root; empty means the backend default
	AccessToken string
}

// Validate checks that the account can be used for remote calls.
func (a Account) Validate() error {
	if a.Key.IsZero() {
		return fmt.Errorf("account key is required")
	}
	if a.AccessToken == "" {
		return fmt.Errorf("account %s has no access token", a.Key)
	}
	return nil
}
