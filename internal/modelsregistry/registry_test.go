package modelsregistry

import (
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/claudegateway/openai-bridge/model"
)

func TestNew_ParsesEmbeddedCatalogWithoutError(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)
	require.NotEmpty(t, r.List())
}

func TestResolve_ByCanonicalID(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)

	m, ok := r.Resolve("claude-sonnet-4-5")
	require.True(t, ok)
	require.Equal(t, "claude-sonnet-4-5", m.ID)
}

func TestResolve_ByAlias(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)

	m, ok := r.Resolve("sonnet")
	require.True(t, ok)
	require.Equal(t, "claude-sonnet-4-5", m.ID)
}

func TestResolve_UnknownIDFails(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)

	_, ok := r.Resolve("gpt-4o")
	require.False(t, ok)
}

func TestValidate_KnownModelIsValid(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)

	result := r.Validate("haiku")
	require.True(t, result.Valid)
	require.NotEmpty(t, result.Available)
}

func TestValidate_UnknownModelRanksSuggestionsByEditDistance(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)

	result := r.Validate("claude-sonnet-4-6")
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Suggestions)
	require.Equal(t, "claude-sonnet-4-5", result.Suggestions[0])
}

func TestFromDescriptors_RejectsDuplicateIDs(t *testing.T) {
	t.Parallel()
	_, err := FromDescriptors([]domain.ModelDescriptor{
		{ID: "a"},
		{ID: "a"},
	})
	require.Error(t, err)
}

func TestFromDescriptors_RejectsAliasCollision(t *testing.T) {
	t.Parallel()
	_, err := FromDescriptors([]domain.ModelDescriptor{
		{ID: "a", Aliases: []string{"shared"}},
		{ID: "b", Aliases: []string{"shared"}},
	})
	require.Error(t, err)
}

func TestFromDescriptors_RejectsEmptyID(t *testing.T) {
	t.Parallel()
	_, err := FromDescriptors([]domain.ModelDescriptor{{ID: ""}})
	require.Error(t, err)
}

func TestAvailableIDs_PreservesCatalogOrder(t *testing.T) {
	t.Parallel()
	r, err := FromDescriptors([]domain.ModelDescriptor{{ID: "first"}, {ID: "second"}, {ID: "third"}})
	require.NoError(t, err)

	ids := r.AvailableIDs()
	require.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestLevenshtein_IsCaseInsensitive(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, levenshtein("Claude-Opus", "claude-opus"))
}

func TestLevenshtein_ExactMatchIsZero(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, levenshtein("abc", "abc"))
}

func TestLevenshtein_SingleEditDistanceIsOne(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1, levenshtein("sonnet", "sonnett"))
}
