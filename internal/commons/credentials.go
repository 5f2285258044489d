package commons

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// Credential fields are copied into the users table on first login.
const (
	maxUsernameLength    = 100
	maxUserIDLength      = 64
	maxDisplayNameLength = 100
)

type Credential struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"passwordHash"`
	UserID       string `yaml:"userId"`
	Name         string `yaml:"name"`
}

type credentialsFile struct {
	Couriers []Credential `yaml:"couriers"`
}

// Credentials is the read-only table of accounts allowed to log in.
type Credentials struct {
	byUsername map[string]Credential
}

func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	return ParseCredentials(data)
}

func ParseCredentials(data []byte) (*Credentials, error) {
	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	creds := &Credentials{byUsername: make(map[string]Credential, len(file.Couriers))}
	userIDs := make(map[string]bool, len(file.Couriers))

	for i, c := range file.Couriers {
		c.Username = strings.TrimSpace(c.Username)
		c.UserID = strings.TrimSpace(c.UserID)
		if c.Username == "" || c.UserID == "" || c.PasswordHash == "" {
			return nil, fmt.Errorf("credentials entry %d: username, userId and passwordHash are required", i)
		}
		if utf8.RuneCountInString(c.Username) > maxUsernameLength || utf8.RuneCountInString(c.UserID) > maxUserIDLength {
			return nil, fmt.Errorf("credentials entry %d: username must be at most %d characters and userId at most %d", i, maxUsernameLength, maxUserIDLength)
		}
		if !strings.HasPrefix(c.PasswordHash, "$2") {
			return nil, fmt.Errorf("credentials entry %q: passwordHash must be a bcrypt hash", c.Username)
		}
		if _, dup := creds.byUsername[c.Username]; dup {
			return nil, fmt.Errorf("credentials entry %q: duplicate username", c.Username)
		}
		if userIDs[c.UserID] {
			return nil, fmt.Errorf("credentials entry %q: duplicate userId %q", c.Username, c.UserID)
		}
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = c.Username
		}
		if utf8.RuneCountInString(c.Name) > maxDisplayNameLength {
			return nil, fmt.Errorf("credentials entry %q: name must be at most %d characters", c.Username, maxDisplayNameLength)
		}
		userIDs[c.UserID] = true
		creds.byUsername[c.Username] = c
	}

	return creds, nil
}

func (c *Credentials) Lookup(username string) (Credential, bool) {
	cred, ok := c.byUsername[username]
	return cred, ok
}

func (c *Credentials) Len() int {
	return len(c.byUsername)
}
