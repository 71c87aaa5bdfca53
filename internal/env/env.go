// Package env reads the environment-derived inputs of the verification
// integrations: the edition override property, the host build reason, and
// the external vulnerability database connection settings.
package env

import (
	"strings"

	"github.com/spf13/viper"
)

// BuildReasonPullRequest is the host build-reason value that marks a
// pull-request build.
const BuildReasonPullRequest = "PullRequest"

// Database holds the connection settings of an external vulnerability
// database. When present, the local data cache's auto-update is disabled and
// the external source is used instead.
type Database struct {
	Driver           string
	ConnectionString string
	User             string
	Password         string
}

// Properties is the read-only view of the process environment used during
// the configuration phase.
type Properties struct {
	v *viper.Viper
}

// Load captures the current process environment. Prefixed settings use the
// CHECKGRID_ namespace (CHECKGRID_EDITION, CHECKGRID_DB_DRIVER, ...); the
// build reason comes from the host's own BUILD_REASON variable.
func Load() *Properties {
	v := viper.New()
	v.SetEnvPrefix("CHECKGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("build.reason", "BUILD_REASON")
	return &Properties{v: v}
}

// EditionOverride returns the edition override property when one is set.
func (p *Properties) EditionOverride() (string, bool) {
	s := p.v.GetString("edition")
	return s, s != ""
}

// BuildReason returns the host build reason, empty when unknown.
func (p *Properties) BuildReason() string {
	return p.v.GetString("build.reason")
}

// IsPullRequestBuild reports whether the host build reason marks a
// pull-request build.
func (p *Properties) IsPullRequestBuild() bool {
	return p.BuildReason() == BuildReasonPullRequest
}

// Database returns the external database settings. The second return is
// false when no connection string is configured, meaning the default local
// dataset with auto-update applies.
func (p *Properties) Database() (Database, bool) {
	conn := p.v.GetString("db.connection")
	if conn == "" {
		return Database{}, false
	}
	return Database{
		Driver:           p.v.GetString("db.driver"),
		ConnectionString: conn,
		User:             p.v.GetString("db.user"),
		Password:         p.v.GetString("db.password"),
	}, true
}
