package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "mapping.json"))
	require.NoError(t, err)
	return store
}

func TestOpenMissingFile(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, 0, store.Len())
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestAddMember(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddMember("art_A100", "Bolt M6", "A100"))

	group, ok := store.Group("art_A100")
	require.True(t, ok)
	assert.Equal(t, "Группа 1", group.Name)
	assert.Equal(t, []domain.Item{{Name: "Bolt M6", Code: "A100"}}, group.Items)
}

func TestAddMemberEmptyCodeSubstitution(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddMember("name_Widget", "Widget", ""))

	group, _ := store.Group("name_Widget")
	assert.Equal(t, "Widget", group.Items[0].Code)
}

func TestAddMemberDuplicate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))
	err := store.AddMember("g1", "Bolt", "A1")
	assert.ErrorIs(t, err, ErrDuplicateItem)

	group, _ := store.Group("g1")
	assert.Len(t, group.Items, 1)
}

func TestRemoveMember(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))
	require.NoError(t, store.AddMember("g1", "Bolt M6", "A2"))

	require.NoError(t, store.RemoveMember("g1", "Bolt", "A1"))

	group, ok := store.Group("g1")
	require.True(t, ok)
	assert.Equal(t, []domain.Item{{Name: "Bolt M6", Code: "A2"}}, group.Items)
}

func TestRemoveMemberDeletesEmptyGroup(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))

	require.NoError(t, store.RemoveMember("g1", "Bolt", "A1"))

	_, ok := store.Group("g1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestRemoveMemberErrors(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))

	assert.ErrorIs(t, store.RemoveMember("missing", "Bolt", "A1"), ErrGroupNotFound)
	assert.ErrorIs(t, store.RemoveMember("g1", "Nut", "A1"), ErrItemNotFound)
}

func TestRenameGroup(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))

	require.NoError(t, store.RenameGroup("g1", "Крепёж"))

	group, _ := store.Group("g1")
	assert.Equal(t, "Крепёж", group.Name)

	assert.ErrorIs(t, store.RenameGroup("missing", "x"), ErrGroupNotFound)
}

func TestMergeGroups(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))
	require.NoError(t, store.AddMember("g1", "Bolt M6", "A2"))
	require.NoError(t, store.AddMember("g2", "Bolt", "A1"))
	require.NoError(t, store.AddMember("g2", "Bolt M8", "A3"))

	require.NoError(t, store.MergeGroups("g2", "g1"))

	_, ok := store.Group("g2")
	assert.False(t, ok)

	group, _ := store.Group("g1")
	assert.Equal(t, []domain.Item{
		{Name: "Bolt", Code: "A1"},
		{Name: "Bolt M6", Code: "A2"},
		{Name: "Bolt M8", Code: "A3"},
	}, group.Items)
}

func TestMergeGroupsMissing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))

	assert.ErrorIs(t, store.MergeGroups("missing", "g1"), ErrGroupNotFound)
	assert.ErrorIs(t, store.MergeGroups("g1", "missing"), ErrGroupNotFound)
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mapping.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.AddMember("art_A100", "Bolt M6", "A100"))
	require.NoError(t, store.AddMember("art_A100", "Bolt M6 Steel", "A100S"))
	require.NoError(t, store.RenameGroup("art_A100", "Болты"))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, store.Groups(), reopened.Groups())
}

func TestFindGroupFor(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))

	id, ok := store.FindGroupFor("Bolt", "A1")
	assert.True(t, ok)
	assert.Equal(t, "g1", id)

	_, ok = store.FindGroupFor("Bolt", "A2")
	assert.False(t, ok)
}

func TestUpdateFromResolution(t *testing.T) {
	store := newTestStore(t)

	added, err := store.UpdateFromResolution(map[string][]domain.Item{
		"art_A100":   {{Name: "Bolt M6", Code: "A100"}},
		"name_Гайка": {{Name: "Гайка", Code: "Гайка"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	group, ok := store.Group("art_A100")
	require.True(t, ok)
	assert.Equal(t, "Группа A100", group.Name)

	group, ok = store.Group("name_Гайка")
	require.True(t, ok)
	assert.Equal(t, "Группа Гайка", group.Name)
}

func TestUpdateFromResolutionSkipsOverlap(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("g1", "Bolt M6", "A100"))
	require.NoError(t, store.AddMember("g1", "Bolt M6 Steel", "A100"))

	// Same members under a different id: half of the smaller set matches,
	// so the candidate is treated as an existing group.
	added, err := store.UpdateFromResolution(map[string][]domain.Item{
		"art_A100": {{Name: "Bolt M6", Code: "A100"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, store.Len())
}

func TestUpdateFromResolutionKeepsExistingID(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMember("art_A100", "Bolt M6", "A100"))

	added, err := store.UpdateFromResolution(map[string][]domain.Item{
		"art_A100": {{Name: "Completely different", Code: "Z9"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	group, _ := store.Group("art_A100")
	assert.Equal(t, []domain.Item{{Name: "Bolt M6", Code: "A100"}}, group.Items)
}
