package pawnAuth

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// UserProfile is the signed-in operator as returned by the remote
// authenticator in the "user" field. Fields the manager does not know about
// are kept in Extra so they survive a round trip through durable storage.
//
// Profiles are replaced, never mutated in place; values handed out by the
// [Manager] are copies.
type UserProfile struct {
	ID       string
	Username string
	Email    string
	Roles    []string
	Extra    map[string]any
}

// Clone returns a deep copy of p. Values inside Extra are copied shallowly.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Roles = slices.Clone(p.Roles)
	out.Extra = maps.Clone(p.Extra)
	return &out
}

// MarshalJSON implements json.Marshaler.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["id"] = p.ID
	out["username"] = p.Username
	if p.Email != "" {
		out["email"] = p.Email
	}
	if len(p.Roles) > 0 {
		out["roles"] = p.Roles
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Document stores that key users
// by "_id" are accepted; "id" wins when both are present.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = UserProfile{}
	for k, v := range raw {
		var err error
		switch k {
		case "id":
			err = json.Unmarshal(v, &p.ID)
		case "_id":
			if _, ok := raw["id"]; !ok {
				err = json.Unmarshal(v, &p.ID)
			}
		case "username":
			err = json.Unmarshal(v, &p.Username)
		case "email":
			err = json.Unmarshal(v, &p.Email)
		case "roles":
			err = json.Unmarshal(v, &p.Roles)
		default:
			var x any
			if err = json.Unmarshal(v, &x); err == nil {
				if p.Extra == nil {
					p.Extra = make(map[string]any)
				}
				p.Extra[k] = x
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Credentials is the e-mail/password pair posted to the remote authenticator.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the remote authenticator's answer to a sign-in or log-in.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// Authenticator is the remote party that exchanges credentials for a token.
// SignIn and LogIn hit different endpoints; the manager treats their answers
// identically.
type Authenticator interface {
	SignIn(ctx context.Context, creds Credentials) (AuthResponse, error)
	LogIn(ctx context.Context, creds Credentials) (AuthResponse, error)
}

// Navigator moves the application to another route. The manager calls it on
// logout; route guards call it on denial.
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(path string)

// NavigateTo calls f(path).
func (f NavigatorFunc) NavigateTo(path string) {
	if f != nil {
		f(path)
	}
}

type noopNavigator struct{}

func (noopNavigator) NavigateTo(string) {}

// Session is a snapshot of the installed credential.
//
// ID is a local correlation id, minted each time a new token is installed and
// carried in audit events. It is never sent to the remote authenticator.
type Session struct {
	ID          string
	Token       string
	User        *UserProfile
	ExpiresAt   time.Time
	InstalledAt time.Time
}
