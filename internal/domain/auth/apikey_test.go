package auth

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byHash map[string]*APIKeyInfo
	err    error
}

func (m *mockRepo) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	info, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return info, nil
}

func TestAuthenticator_Authenticate(t *testing.T) {
	pepper := []byte("pepper")
	hash := HashKey(pepper, "secret-key")
	admin := &APIKeyInfo{ID: 1, KeyHash: hash, Name: "admin", Scopes: []string{"*"}}

	tests := []struct {
		name    string
		repo    *mockRepo
		key     string
		want    *APIKeyInfo
		wantErr error
	}{
		{name: "valid", repo: &mockRepo{byHash: map[string]*APIKeyInfo{hash: admin}}, key: " secret-key ", want: admin},
		{name: "empty", repo: &mockRepo{}, key: "", wantErr: ErrUnauthorized},
		{name: "unknown", repo: &mockRepo{byHash: map[string]*APIKeyInfo{}}, key: "nope", wantErr: ErrUnauthorized},
		{
			name:    "stale row",
			repo:    &mockRepo{byHash: map[string]*APIKeyInfo{hash: {KeyHash: "00ff"}}},
			key:     "secret-key",
			wantErr: ErrUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAuthenticator(tt.repo, pepper).Authenticate(context.Background(), tt.key)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("store failure is not unauthorized", func(t *testing.T) {
		repo := &mockRepo{err: errors.New("conn refused")}
		_, err := NewAuthenticator(repo, pepper).Authenticate(context.Background(), "secret-key")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})
}

func TestHashKey(t *testing.T) {
	a := HashKey([]byte("p1"), "key")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashKey([]byte("p1"), "key"))
	assert.NotEqual(t, a, HashKey([]byte("p2"), "key"))
}

func TestAPIKeyInfo_HasScope(t *testing.T) {
	assert.True(t, (&APIKeyInfo{Scopes: []string{"*"}}).HasScope("orders:read"))
	assert.True(t, (&APIKeyInfo{Scopes: []string{"orders:read"}}).HasScope("orders:read"))
	assert.False(t, (&APIKeyInfo{Scopes: []string{"catalog:write"}}).HasScope("orders:read"))
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	info := &APIKeyInfo{Name: "admin"}
	got, ok := FromContext(WithKey(context.Background(), info))
	require.True(t, ok)
	assert.Same(t, info, got)
}
