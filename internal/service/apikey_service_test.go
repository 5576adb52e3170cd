package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/storage/memstorage"
	"github.com/neurallempire/neurallempire-api/internal/util"
)

type apiKeyServiceFixture struct {
	svc       *APIKeyService
	keyRepo   *memstorage.APIKeyRepository
	agentRepo *memstorage.AgentRepository
	orgID     uuid.UUID
	agentID   uuid.UUID
}

func newAPIKeyServiceFixture(t *testing.T) *apiKeyServiceFixture {
	t.Helper()
	f := &apiKeyServiceFixture{
		keyRepo:   memstorage.NewAPIKeyRepository(),
		agentRepo: memstorage.NewAgentRepository(),
		orgID:     uuid.New(),
	}
	a := &agent.Agent{
		OrganizationID: f.orgID,
		Name:           "outreach-bot",
		Type:           "outreach",
		Status:         agent.StatusActive,
	}
	id, err := f.agentRepo.Create(context.Background(), a)
	require.NoError(t, err)
	f.agentID = id
	f.svc = NewAPIKeyService(f.keyRepo, f.agentRepo, zap.NewNop())
	return f
}

func TestAPIKeyServiceCreate(t *testing.T) {
	f := newAPIKeyServiceFixture(t)

	res, err := f.svc.CreateAPIKey(context.Background(), f.orgID, &dto.CreateAPIKeyRequest{
		Name:      "prod key",
		AgentID:   f.agentID,
		RateLimit: 120,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.FullKey)
	assert.Equal(t, []string{"leads:write"}, res.Permissions, "default permission when none requested")
	assert.Equal(t, 120, res.RateLimit)

	// The stored record must verify the plaintext returned once.
	prefix, ok := util.ParseAPIKey(res.FullKey)
	require.True(t, ok)
	stored, err := f.keyRepo.FindByPrefix(context.Background(), prefix)
	require.NoError(t, err)
	assert.Equal(t, util.HashAPIKey(res.FullKey), stored.KeyHash)
	assert.True(t, stored.IsActive)
}

func TestAPIKeyServiceCreateRejectsForeignAgent(t *testing.T) {
	f := newAPIKeyServiceFixture(t)

	_, err := f.svc.CreateAPIKey(context.Background(), uuid.New(), &dto.CreateAPIKeyRequest{
		Name:    "sneaky",
		AgentID: f.agentID,
	})
	assert.ErrorIs(t, err, ierr.ErrForbidden)
}

func TestAPIKeyServiceCreateRejectsUnknownAgent(t *testing.T) {
	f := newAPIKeyServiceFixture(t)

	_, err := f.svc.CreateAPIKey(context.Background(), f.orgID, &dto.CreateAPIKeyRequest{
		Name:    "orphan",
		AgentID: uuid.New(),
	})
	assert.ErrorIs(t, err, ierr.ErrValidation)
}

func TestAPIKeyServiceRevoke(t *testing.T) {
	f := newAPIKeyServiceFixture(t)
	res, err := f.svc.CreateAPIKey(context.Background(), f.orgID, &dto.CreateAPIKeyRequest{
		Name:    "doomed",
		AgentID: f.agentID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeAPIKey(context.Background(), f.orgID, res.ID))

	// A revoked key is no longer resolvable by prefix.
	_, err = f.keyRepo.FindByPrefix(context.Background(), res.Prefix)
	assert.ErrorIs(t, err, apikey.ErrAPIKeyNotFound)

	// Revoking is tenant scoped.
	err = f.svc.RevokeAPIKey(context.Background(), uuid.New(), res.ID)
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestAPIKeyServiceRegenerate(t *testing.T) {
	f := newAPIKeyServiceFixture(t)
	created, err := f.svc.CreateAPIKey(context.Background(), f.orgID, &dto.CreateAPIKeyRequest{
		Name:    "rotating",
		AgentID: f.agentID,
	})
	require.NoError(t, err)

	rotated, err := f.svc.RegenerateAPIKey(context.Background(), f.orgID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, rotated.ID, "rotation keeps the key id")
	assert.NotEqual(t, created.FullKey, rotated.FullKey)

	// Old plaintext is dead, new plaintext verifies.
	_, err = f.keyRepo.FindByPrefix(context.Background(), created.Prefix)
	assert.ErrorIs(t, err, apikey.ErrAPIKeyNotFound)

	stored, err := f.keyRepo.FindByPrefix(context.Background(), rotated.Prefix)
	require.NoError(t, err)
	assert.Equal(t, util.HashAPIKey(rotated.FullKey), stored.KeyHash)

	_, err = f.svc.RegenerateAPIKey(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}
