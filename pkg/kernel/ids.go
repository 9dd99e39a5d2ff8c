package kernel

import "strings"

// Email is a canonicalized (lower-cased) email address. All lookups and
// inserts go through the canonical form so case variants never produce
// duplicate identities.
type Email string

// NewEmail canonicalizes a raw email address.
func NewEmail(raw string) Email {
	return Email(strings.ToLower(strings.TrimSpace(raw)))
}

func (e Email) String() string { return string(e) }
func (e Email) IsEmpty() bool  { return string(e) == "" }

// Domain returns the part after the last '@', or "" when there is none.
func (e Email) Domain() string {
	at := strings.LastIndex(string(e), "@")
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return string(e)[at+1:]
}

// ClientID identifies an instance (tenant).
type ClientID string

func NewClientID(id string) ClientID { return ClientID(id) }
func (c ClientID) String() string    { return string(c) }
func (c ClientID) IsEmpty() bool     { return string(c) == "" }
