// Package authz decides whether an actor may perform an action on a
// resource. Level grants live in an embedded casbin policy; ownership of
// reviews and comments is checked here.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/metrics"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Action is what the actor wants to do. Only ActionRead is safe.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Safe reports whether the action only retrieves data.
func (a Action) Safe() bool { return a == ActionRead }

// Kind names a resource family.
type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"
	KindProfile  Kind = "profile"
)

// Owned is implemented by resources that have an author.
type Owned interface {
	OwnerID() int64
}

type Engine struct {
	enforcer *casbin.SyncedEnforcer
	logger   logging.Logger
}

// NewEngine builds the enforcer from the embedded model and policy.
func NewEngine(logger logging.Logger) (*Engine, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, fmt.Errorf("failed to load casbin policy: %w", err)
	}

	return &Engine{enforcer: enforcer, logger: logger.With("module", "authz")}, nil
}

func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		rule := make([]string, 0, len(parts))
		for _, p := range parts {
			rule = append(rule, strings.TrimSpace(p))
		}

		switch {
		case rule[0] == "p" && len(rule) == 4:
			if _, err := enforcer.AddPolicy(rule[1], rule[2], rule[3]); err != nil {
				return err
			}
		case rule[0] == "g" && len(rule) == 3:
			if _, err := enforcer.AddGroupingPolicy(rule[1], rule[2]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allow decides whether actor (nil for anonymous) may perform action on a
// resource of the given kind. obj is the target object for update and
// delete, nil otherwise. Not being logged in and lacking a grant both end up
// as false.
func (e *Engine) Allow(actor *models.User, action Action, kind Kind, obj Owned) bool {
	allowed := e.decide(actor, action, kind, obj)

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	metrics.AuthzDecisions.WithLabelValues(string(kind), string(action), decision).Inc()
	e.logger.Debug(context.Background(), "authz decision",
		"role", actor.EffectiveLevel().String(), "kind", kind, "action", action, "decision", decision)

	return allowed
}

func (e *Engine) decide(actor *models.User, action Action, kind Kind, obj Owned) bool {
	if actor == nil && !action.Safe() {
		return false
	}
	if actor != nil && !action.Safe() && obj != nil && ownable(kind) && obj.OwnerID() == actor.ID {
		return true
	}

	ok, err := e.enforcer.Enforce(actor.EffectiveLevel().String(), string(kind), string(action))
	if err != nil {
		e.logger.Error(context.Background(), "casbin enforce failed", "kind", kind, "action", action, "error", err)
		return false
	}
	return ok
}

// Authenticated rejects anonymous actors on unsafe actions. It needs no
// object, so callers run it before loading the target.
func (e *Engine) Authenticated(actor *models.User, action Action) error {
	if actor == nil && !action.Safe() {
		return common.ErrUnauthenticated
	}
	return nil
}

// Check runs Allow and maps a deny to an error: anonymous actors get
// common.ErrUnauthenticated, authenticated ones common.ErrForbidden.
func (e *Engine) Check(actor *models.User, action Action, kind Kind, obj Owned) error {
	if e.Allow(actor, action, kind, obj) {
		return nil
	}
	if actor == nil {
		return common.ErrUnauthenticated
	}
	return common.ErrForbidden
}

func ownable(k Kind) bool {
	return k == KindReview || k == KindComment
}
