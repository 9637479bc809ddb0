// Package storage holds the object key access policy and the object store behind it.
package storage

import (
	"fmt"
	"strings"

	"kointos-backend/internal/schema"
	"kointos-backend/pkg/errs"
)

// Action is an operation on an object.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Principal is the class of caller a grant applies to.
type Principal string

const (
	// PrincipalEntity matches the identity whose ID fills the {entity_id} segment.
	PrincipalEntity Principal = "entity"
	// PrincipalAuthenticated matches any signed-in identity.
	PrincipalAuthenticated Principal = "authenticated"
	// PrincipalGuest matches callers without an identity.
	PrincipalGuest Principal = "guest"
)

const (
	entitySegment   = "{entity_id}"
	wildcardSegment = "*"
)

// Grant allows Actions to Principal.
type Grant struct {
	Principal Principal `json:"principal"`
	Actions   []Action  `json:"actions"`
}

// Rule grants access to the keys matched by Pattern. A pattern is a slash separated list of
// literal segments, optionally one {entity_id} segment, and a trailing * that matches one or
// more further segments.
type Rule struct {
	Pattern string  `json:"pattern"`
	Grants  []Grant `json:"grants"`

	segments []string
}

// Policy is the ordered rule table of a bucket. Keys no rule matches are denied.
type Policy struct {
	Bucket string  `json:"bucket"`
	Rules  []*Rule `json:"rules"`
}

// NewPolicy parses the rule patterns.
func NewPolicy(bucket string, rules ...*Rule) (*Policy, error) {
	for _, r := range rules {
		segs := strings.Split(r.Pattern, "/")
		if len(segs) < 2 || segs[len(segs)-1] != wildcardSegment {
			return nil, fmt.Errorf("storage rule %q must end with /*", r.Pattern)
		}
		for _, s := range segs[:len(segs)-1] {
			if s == "" || s == wildcardSegment {
				return nil, fmt.Errorf("storage rule %q has an invalid segment", r.Pattern)
			}
		}
		r.segments = segs
	}
	return &Policy{Bucket: bucket, Rules: rules}, nil
}

// DefaultPolicy returns the application's bucket policy.
func DefaultPolicy(bucket string) *Policy {
	owner := []Action{ActionRead, ActionWrite, ActionDelete}
	p, err := NewPolicy(bucket,
		&Rule{Pattern: "profile-pictures/{entity_id}/*", Grants: []Grant{{Principal: PrincipalEntity, Actions: owner}}},
		&Rule{Pattern: "post-images/{entity_id}/*", Grants: []Grant{{Principal: PrincipalEntity, Actions: owner}}},
		&Rule{Pattern: "public-assets/*", Grants: []Grant{
			{Principal: PrincipalAuthenticated, Actions: []Action{ActionRead}},
			{Principal: PrincipalGuest, Actions: []Action{ActionRead}},
		}},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateKey rejects keys that are empty, absolute, or contain empty or dot segments.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return errs.ErrInvalidKey
	}
	for _, s := range strings.Split(key, "/") {
		if s == "" || s == "." || s == ".." {
			return errs.ErrInvalidKey
		}
	}
	return nil
}

// Allowed reports whether id may perform action on key. A nil id is a guest.
func (p *Policy) Allowed(id *schema.Identity, key string, action Action) bool {
	if ValidateKey(key) != nil {
		return false
	}
	return p.allowed(id, strings.Split(key, "/"), action, false)
}

// AllowedPrefix reports whether id may perform action on every key under prefix. The prefix
// must reach at least the wildcard position of a rule, so listing "profile-pictures/" as a
// whole is denied while "profile-pictures/<own id>/" is allowed.
func (p *Policy) AllowedPrefix(id *schema.Identity, prefix string, action Action) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if ValidateKey(prefix) != nil {
		return false
	}
	return p.allowed(id, strings.Split(prefix, "/"), action, true)
}

func (p *Policy) allowed(id *schema.Identity, segs []string, action Action, prefix bool) bool {
	for _, r := range p.Rules {
		entity, ok := r.match(segs, prefix)
		if !ok {
			continue
		}
		for _, g := range r.Grants {
			if !g.allows(action) {
				continue
			}
			switch g.Principal {
			case PrincipalGuest:
				if id == nil || id.Subject == "" {
					return true
				}
			case PrincipalAuthenticated:
				if id != nil && id.Subject != "" {
					return true
				}
			case PrincipalEntity:
				if id != nil && id.Subject != "" && entity == id.Subject {
					return true
				}
			}
		}
	}
	return false
}

// match returns the value bound to {entity_id}. With prefix set the wildcard may match nothing.
func (r *Rule) match(segs []string, prefix bool) (string, bool) {
	fixed := r.segments[:len(r.segments)-1]
	if len(segs) < len(fixed) || (!prefix && len(segs) == len(fixed)) {
		return "", false
	}
	entity := ""
	for i, s := range fixed {
		switch s {
		case entitySegment:
			entity = segs[i]
		default:
			if segs[i] != s {
				return "", false
			}
		}
	}
	return entity, true
}

func (g Grant) allows(action Action) bool {
	for _, a := range g.Actions {
		if a == action {
			return true
		}
	}
	return false
}
