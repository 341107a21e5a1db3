package mongo

import (
	"errors"
	"net/url"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultDatabase is used when neither the URI nor the config names one.
const DefaultDatabase = "test"

// ErrNoConnection is returned when no connection string can be assembled.
var ErrNoConnection = errors.New("mongodb connection not configured: set MONGODB_URI or MONGODB_USER, MONGODB_PASSWORD and MONGODB_HOST")

// ConnInfo carries the connection settings as they appear in the environment.
type ConnInfo struct {
	URI      string
	User     string
	Password string
	Host     string
	Database string
}

// BuildURI assembles an SRV connection string from credentials. User and
// password are escaped; an empty database becomes DefaultDatabase.
func BuildURI(user, password, host, database string) string {
	if database == "" {
		database = DefaultDatabase
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, password),
		Host:     host,
		Path:     "/" + database,
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// Resolve returns the connection string to dial. An explicit URI wins;
// otherwise user, password and host must all be present.
func (c ConnInfo) Resolve() (string, error) {
	if c.URI != "" {
		return c.URI, nil
	}
	if c.User == "" || c.Password == "" || c.Host == "" {
		return "", ErrNoConnection
	}
	return BuildURI(c.User, c.Password, c.Host, c.Database), nil
}

// DatabaseName picks the database named in uri, then fallback, then DefaultDatabase.
func DatabaseName(uri, fallback string) string {
	if cs, err := connstring.Parse(uri); err == nil && cs.Database != "" {
		return cs.Database
	}
	if fallback != "" {
		return fallback
	}
	return DefaultDatabase
}
