package session

import (
	"context"
	"sync"

	"histotrek/internal/domain"
	"histotrek/pkg/logger"
)

// Context holds the user logged into this process. There is exactly one per
// process; it is created by the factory and shared by the services.
type Context struct {
	mu   sync.RWMutex
	user *domain.User
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) SetCurrentUser(user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
}

// CurrentUser returns nil when nobody is logged in.
func (c *Context) CurrentUser() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Context) Clear() {
	c.SetCurrentUser(nil)
}

func (c *Context) IsAuthenticated() bool {
	return c.CurrentUser() != nil
}

func (c *Context) RequireUser() (*domain.User, error) {
	user := c.CurrentUser()
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return user, nil
}

func (c *Context) RequireAdmin() (*domain.User, error) {
	user, err := c.RequireUser()
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return user, nil
}

// Annotate tags ctx with the current user id for log correlation.
func (c *Context) Annotate(ctx context.Context) context.Context {
	if user := c.CurrentUser(); user != nil {
		return logger.ContextWithUserID(ctx, user.ID)
	}
	return ctx
}
