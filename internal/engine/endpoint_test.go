package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnaderi/pctl/internal/portainer"
)

func tagsRoute(tags ...portainer.Tag) map[string]any {
	return map[string]any{"GET /api/tags": tags}
}

func TestEndpoint_ByIDMakesNoCalls(t *testing.T) {
	ft := newFakeTransport(nil)

	ep, err := tokenSession(ft).Endpoint(context.Background(), ByID(42))
	require.NoError(t, err)
	assert.Equal(t, 42, ep.ID())
	assert.Empty(t, ft.keys())
}

func TestEndpoint_ByName(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []portainer.Endpoint
		wantID    int
		wantCount int
		ambiguous bool
	}{
		{name: "single", endpoints: []portainer.Endpoint{{ID: 3, Name: "swarm-eu"}}, wantID: 3},
		{name: "none", endpoints: []portainer.Endpoint{}, ambiguous: true, wantCount: 0},
		{name: "several", endpoints: []portainer.Endpoint{{ID: 3}, {ID: 4}}, ambiguous: true, wantCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTransport(map[string]any{"GET /api/endpoints": tt.endpoints})

			ep, err := tokenSession(ft).Endpoint(context.Background(), ByName("swarm-eu"))
			assert.Equal(t, "swarm-eu", ft.last().Query.Get("name"))
			if tt.ambiguous {
				var amb *AmbiguousSelectionError
				require.True(t, errors.As(err, &amb))
				assert.Equal(t, tt.wantCount, amb.Count())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ep.ID())
		})
	}
}

func TestEndpoint_ByTagIDs(t *testing.T) {
	ft := newFakeTransport(map[string]any{
		"GET /api/endpoints": []portainer.Endpoint{{ID: 9, Name: "only"}},
	})

	ep, err := tokenSession(ft).Endpoint(context.Background(), ByTagIDs(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 9, ep.ID())

	q := ft.last().Query
	assert.Equal(t, []string{"1", "2"}, q["tagIds"])
	assert.Equal(t, "false", q.Get("tagsPartialMatch"))
}

func TestEndpoint_ByTagNamesAmbiguousIntersection(t *testing.T) {
	ft := newFakeTransport(tagsRoute(
		portainer.Tag{ID: 1, Name: "prod", Endpoints: map[int]bool{1: true, 2: true, 3: true}},
		portainer.Tag{ID: 2, Name: "eu", Endpoints: map[int]bool{2: true, 3: true, 4: true}},
	))

	_, err := tokenSession(ft).Endpoint(context.Background(), ByTagNames("prod", "eu"))
	var amb *AmbiguousSelectionError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, 2, amb.Count())
	assert.Equal(t, []int{2, 3}, amb.Candidates)
	assert.Equal(t, []string{"GET /api/tags"}, ft.keys())
}

func TestEndpoint_ByTagNamesUnique(t *testing.T) {
	ft := newFakeTransport(tagsRoute(
		portainer.Tag{ID: 1, Name: "prod", Endpoints: map[int]bool{1: true, 2: true, 3: true}},
		portainer.Tag{ID: 2, Name: "eu", Endpoints: map[int]bool{2: false, 3: true, 4: true}},
		portainer.Tag{ID: 3, Name: "unrelated", Endpoints: map[int]bool{5: true}},
	))

	ep, err := tokenSession(ft).Endpoint(context.Background(), ByTagNames("prod", "eu"))
	require.NoError(t, err)
	assert.Equal(t, 3, ep.ID())
}

func TestEndpoint_ByTagNamesIgnoresUnknownNamesWhenOthersMatch(t *testing.T) {
	ft := newFakeTransport(tagsRoute(
		portainer.Tag{ID: 1, Name: "prod", Endpoints: map[int]bool{7: true}},
	))

	ep, err := tokenSession(ft).Endpoint(context.Background(), ByTagNames("prod", "asia"))
	require.NoError(t, err)
	assert.Equal(t, 7, ep.ID())
}

func TestEndpoint_ByTagNamesNoMatchingTags(t *testing.T) {
	ft := newFakeTransport(tagsRoute(
		portainer.Tag{ID: 1, Name: "prod", Endpoints: map[int]bool{1: true}},
	))

	_, err := tokenSession(ft).Endpoint(context.Background(), ByTagNames("staging"))
	require.Error(t, err)
	assert.True(t, IsNoMatchingTagsError(err))
	assert.False(t, IsAmbiguousSelectionError(err))
}

func TestEndpoint_ByTagNamesEmptyIntersection(t *testing.T) {
	ft := newFakeTransport(tagsRoute(
		portainer.Tag{ID: 1, Name: "prod", Endpoints: map[int]bool{1: true}},
		portainer.Tag{ID: 2, Name: "eu", Endpoints: map[int]bool{2: true}},
	))

	_, err := tokenSession(ft).Endpoint(context.Background(), ByTagNames("prod", "eu"))
	var amb *AmbiguousSelectionError
	require.True(t, errors.As(err, &amb))
	assert.Zero(t, amb.Count())
}

func TestEndpoint_SessionIsConsumed(t *testing.T) {
	s := tokenSession(newFakeTransport(nil))

	_, err := s.Endpoint(context.Background(), ByID(1))
	require.NoError(t, err)

	_, err = s.Endpoint(context.Background(), ByID(1))
	assert.ErrorIs(t, err, ErrHandleConsumed)
}

func TestEndpoint_InvalidSelectorDoesNotConsume(t *testing.T) {
	s := tokenSession(newFakeTransport(nil))

	_, err := s.Endpoint(context.Background(), ByTagNames())
	require.Error(t, err)

	_, err = s.Endpoint(context.Background(), ByID(1))
	assert.NoError(t, err)
}

func TestEndpoint_SwarmIDFetchedOnce(t *testing.T) {
	ft := newFakeTransport(map[string]any{
		"GET /api/endpoints/5/docker/swarm": map[string]any{"ID": "swarm-xyz"},
	})
	ep, err := tokenSession(ft).Endpoint(context.Background(), ByID(5))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		id, err := ep.SwarmID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "swarm-xyz", id)
	}
	assert.Equal(t, []string{"GET /api/endpoints/5/docker/swarm"}, ft.keys())
}

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "id=4", ByID(4).String())
	assert.Equal(t, `"edge"`, ByName("edge").String())
	assert.Equal(t, "tag-ids=1,2", ByTagIDs(1, 2).String())
	assert.Equal(t, "tags=prod,eu", ByTagNames("prod", "eu").String())
}
