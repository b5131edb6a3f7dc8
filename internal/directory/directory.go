package directory

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ospiem/quizbee/config"
)

// GroupLevel is one group membership of a person together with their
// proficiency level in that group.
type GroupLevel struct {
	GroupID string
	Level   int
}

// Person is a read-only view of a directory user.
type Person struct {
	ID       string
	FullName string
	Groups   []GroupLevel
}

// MaxLevelFor returns the highest proficiency level the person holds across
// the given groups, and whether any of them matched.
func (p *Person) MaxLevelFor(groupIDs map[string]struct{}) (int, bool) {
	maxLevel, found := 0, false
	for _, g := range p.Groups {
		if _, ok := groupIDs[g.GroupID]; !ok {
			continue
		}
		if !found || g.Level > maxLevel {
			maxLevel = g.Level
		}
		found = true
	}
	return maxLevel, found
}

// Directory enumerates the people questions are delivered to.
type Directory interface {
	GetAllPeople() ([]Person, error)
	GetPerson(personID string) (*Person, error)
}

type httpDirectory struct {
	host   string
	token  string
	client *http.Client
}

// NewDirectory builds the HTTP client for the user directory service.
func NewDirectory(cfg *config.Config) Directory {
	return &httpDirectory{
		host:   cfg.Directory.Host,
		token:  cfg.Directory.Token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type directoryUser struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Memberships []struct {
		GroupID string `json:"groupId"`
	} `json:"memberships"`
	Data struct {
		GroupLevels []struct {
			GroupID string `json:"groupId"`
			Level   int    `json:"level"`
		} `json:"groupLevels"`
	} `json:"data"`
}

// construct keeps only group levels backed by an actual membership.
func construct(user directoryUser) Person {
	memberships := make(map[string]struct{}, len(user.Memberships))
	for _, m := range user.Memberships {
		memberships[m.GroupID] = struct{}{}
	}

	var groups []GroupLevel
	for _, gl := range user.Data.GroupLevels {
		if _, ok := memberships[gl.GroupID]; ok {
			groups = append(groups, GroupLevel{GroupID: gl.GroupID, Level: gl.Level})
		}
	}

	name := user.FullName
	if name == "" {
		name = "Name"
	}
	return Person{ID: user.ID, FullName: name, Groups: groups}
}

func (d *httpDirectory) get(url string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Authorization", d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory responded with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode directory response: %w", err)
	}
	return nil
}

func (d *httpDirectory) GetAllPeople() ([]Person, error) {
	var payload struct {
		Users []directoryUser `json:"users"`
	}
	if err := d.get(d.host+"/api/user/search?queryString=*", &payload); err != nil {
		return nil, err
	}

	people := make([]Person, 0, len(payload.Users))
	for _, user := range payload.Users {
		people = append(people, construct(user))
	}
	return people, nil
}

func (d *httpDirectory) GetPerson(personID string) (*Person, error) {
	var payload struct {
		User directoryUser `json:"user"`
	}
	if err := d.get(d.host+"/api/user/"+personID, &payload); err != nil {
		return nil, err
	}

	person := construct(payload.User)
	return &person, nil
}
