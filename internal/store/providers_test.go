package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomchat/internal/models"
)

func TestCreateProviderDuplicateConflict(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	s := NewProviderStore(db)

	_, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)

	_, err = s.Create(ctx(), "alice", "openai", "work")
	assert.ErrorIs(t, err, ErrConflict)

	// Same names under a different account name are fine.
	_, err = s.Create(ctx(), "alice", "openai", "personal")
	assert.NoError(t, err)
}

func TestCreateProviderUniquenessIsPerCaller(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	s := NewProviderStore(db)

	_, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)

	_, err = s.Create(ctx(), "bob", "openai", "work")
	assert.NoError(t, err)
}

func TestCreateProviderValidation(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	s := NewProviderStore(db)

	_, err := s.Create(ctx(), "alice", "", "work")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Create(ctx(), "alice", "openai", "  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCrossUserProviderAccessIsNotFound(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	s := NewProviderStore(db)

	provider, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)

	_, err = s.Get(ctx(), "bob", provider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Delete(ctx(), "bob", provider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Credentials(ctx(), "bob", provider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetSelected(ctx(), "bob", provider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Alice still sees her row untouched.
	got, err := s.Get(ctx(), "alice", provider.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", got.AccountName)
}

func TestInsertCredentialRules(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	s := NewProviderStore(db)

	provider, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)

	// Unknown keys are rejected before any write.
	_, err = s.InsertCredential(ctx(), "alice", provider.ID, "UNKNOWN_KEY", "v")
	assert.ErrorIs(t, err, ErrValidation)
	var count int64
	db.Model(&models.InferenceProviderCredential{}).Count(&count)
	assert.Zero(t, count)

	_, err = s.InsertCredential(ctx(), "alice", provider.ID, "OPENAI_API_KEY", "sk-1")
	require.NoError(t, err)

	// One credential per (provider, key).
	_, err = s.InsertCredential(ctx(), "alice", provider.ID, "OPENAI_API_KEY", "sk-2")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateCredential(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	s := NewProviderStore(db)

	provider, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)
	cred, err := s.InsertCredential(ctx(), "alice", provider.ID, "OPENAI_API_KEY", "sk-1")
	require.NoError(t, err)

	updated, err := s.UpdateCredential(ctx(), "alice", cred.ID, "OPENAI_API_KEY", "sk-2")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, updated.ID)
	assert.Equal(t, "sk-2", updated.CredentialValue)

	_, err = s.UpdateCredential(ctx(), "alice", 9999, "OPENAI_API_KEY", "v")
	assert.ErrorIs(t, err, ErrNotFound)

	// Bob cannot touch a credential on Alice's provider.
	_, err = s.UpdateCredential(ctx(), "bob", cred.ID, "OPENAI_API_KEY", "stolen")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetSelectedUpsertsSingleRow(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	s := NewProviderStore(db)

	p1, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)
	p2, err := s.Create(ctx(), "alice", "openai", "personal")
	require.NoError(t, err)

	_, err = s.SetSelected(ctx(), "alice", p1.ID)
	require.NoError(t, err)
	_, err = s.SetSelected(ctx(), "alice", p2.ID)
	require.NoError(t, err)

	var settings []models.UserProviderSetting
	require.NoError(t, db.Where("user_id = ?", "alice").Find(&settings).Error)
	require.Len(t, settings, 1)
	assert.Equal(t, p2.ID, settings[0].ProviderID)

	selected, err := s.Selected(ctx(), "alice")
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, p2.ID, selected.ID)
}

func TestSelectedNilWhenUnset(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	s := NewProviderStore(db)

	selected, err := s.Selected(ctx(), "alice")
	require.NoError(t, err)
	assert.Nil(t, selected)
}

func TestDeleteProviderCascadesCredentials(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	s := NewProviderStore(db)

	provider, err := s.Create(ctx(), "alice", "openai", "work")
	require.NoError(t, err)
	_, err = s.InsertCredential(ctx(), "alice", provider.ID, "OPENAI_API_KEY", "sk-1")
	require.NoError(t, err)

	// Second credential lives on another provider and must survive.
	other, err := s.Create(ctx(), "alice", "openai", "personal")
	require.NoError(t, err)
	_, err = s.InsertCredential(ctx(), "alice", other.ID, "OPENAI_API_KEY", "sk-2")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx(), "alice", provider.ID))

	var credCount int64
	db.Model(&models.InferenceProviderCredential{}).Where("inference_provider_id = ?", provider.ID).Count(&credCount)
	assert.Zero(t, credCount)

	providers, err := s.List(ctx(), "alice")
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, other.ID, providers[0].ID)

	var otherCreds int64
	db.Model(&models.InferenceProviderCredential{}).Where("inference_provider_id = ?", other.ID).Count(&otherCreds)
	assert.EqualValues(t, 1, otherCreds)
}
