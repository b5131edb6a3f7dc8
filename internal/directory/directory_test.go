package directory_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ospiem/quizbee/config"
	"github.com/ospiem/quizbee/internal/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userJSON = `{
	"id": "person-1",
	"fullName": "Grace Hopper",
	"memberships": [{"groupId": "go-devs"}, {"groupId": "ops"}],
	"data": {
		"groupLevels": [
			{"groupId": "go-devs", "level": 3},
			{"groupId": "ops", "level": 1},
			{"groupId": "left-long-ago", "level": 5}
		]
	}
}`

func newDirectory(url string) directory.Directory {
	return directory.NewDirectory(&config.Config{
		Directory: config.Directory{Host: url, Token: "secret-token"},
	})
}

func TestGetPersonIntersectsMembershipsWithLevels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/user/person-1", r.URL.Path)
		w.Write([]byte(`{"user": ` + userJSON + `}`))
	}))
	defer server.Close()

	person, err := newDirectory(server.URL).GetPerson("person-1")
	require.NoError(t, err)

	assert.Equal(t, "person-1", person.ID)
	assert.Equal(t, "Grace Hopper", person.FullName)
	// The level for the group they no longer belong to is dropped.
	assert.Equal(t, []directory.GroupLevel{
		{GroupID: "go-devs", Level: 3},
		{GroupID: "ops", Level: 1},
	}, person.Groups)
}

func TestGetAllPeople(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/search", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("queryString"))
		w.Write([]byte(`{"users": [` + userJSON + `, {"id": "person-2"}]}`))
	}))
	defer server.Close()

	people, err := newDirectory(server.URL).GetAllPeople()
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "person-1", people[0].ID)

	// A user with no name or groups still comes back usable.
	assert.Equal(t, "person-2", people[1].ID)
	assert.NotEmpty(t, people[1].FullName)
	assert.Empty(t, people[1].Groups)
}

func TestGetPersonErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newDirectory(server.URL).GetPerson("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestMaxLevelFor(t *testing.T) {
	person := directory.Person{
		ID: "person-1",
		Groups: []directory.GroupLevel{
			{GroupID: "go-devs", Level: 3},
			{GroupID: "ops", Level: 1},
		},
	}

	level, ok := person.MaxLevelFor(map[string]struct{}{"go-devs": {}, "ops": {}})
	assert.True(t, ok)
	assert.Equal(t, 3, level)

	level, ok = person.MaxLevelFor(map[string]struct{}{"ops": {}})
	assert.True(t, ok)
	assert.Equal(t, 1, level)

	_, ok = person.MaxLevelFor(map[string]struct{}{"unrelated": {}})
	assert.False(t, ok)
}
