package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/internal/domain"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
)

func TestContext_Lifecycle(t *testing.T) {
	sc := NewContext()
	assert.False(t, sc.IsAuthenticated())
	assert.Nil(t, sc.CurrentUser())

	user := &domain.User{ID: 7, Username: "alice", Role: domain.RoleUser}
	sc.SetCurrentUser(user)
	assert.True(t, sc.IsAuthenticated())
	assert.Equal(t, user, sc.CurrentUser())

	sc.Clear()
	assert.False(t, sc.IsAuthenticated())
}

func TestContext_RequireUser(t *testing.T) {
	sc := NewContext()

	_, err := sc.RequireUser()
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	sc.SetCurrentUser(&domain.User{ID: 1, Role: domain.RoleUser})
	user, err := sc.RequireUser()
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestContext_RequireAdmin(t *testing.T) {
	sc := NewContext()

	_, err := sc.RequireAdmin()
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	sc.SetCurrentUser(&domain.User{ID: 1, Role: domain.RoleUser})
	_, err = sc.RequireAdmin()
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	sc.SetCurrentUser(&domain.User{ID: 2, Role: domain.RoleAdmin})
	admin, err := sc.RequireAdmin()
	require.NoError(t, err)
	assert.Equal(t, int64(2), admin.ID)
}

func TestContext_Annotate(t *testing.T) {
	sc := NewContext()
	ctx := sc.Annotate(context.Background())
	_, ok := logger.UserIDFromContext(ctx)
	assert.False(t, ok)

	sc.SetCurrentUser(&domain.User{ID: 42})
	id, ok := logger.UserIDFromContext(sc.Annotate(context.Background()))
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestContext_ConcurrentAccess(t *testing.T) {
	sc := NewContext()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			sc.SetCurrentUser(&domain.User{ID: id})
		}(int64(i))
		go func() {
			defer wg.Done()
			sc.IsAuthenticated()
		}()
	}
	wg.Wait()

	assert.True(t, sc.IsAuthenticated())
}
