// Package config describes resource descriptors for qres.
//
// Descriptors are resolved by an external directory (cluster scheduler shim,
// config file) before the core is constructed; the packages below consume
// them read-only and never look at the process environment themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	"github.com/qcgrid/qres/logger"
)

// Family identifies a backend protocol family.
type Family string

// The closed set of supported backend families.
const (
	DirectAccess   Family = "direct-access"
	RuntimeService Family = "runtime-service"
	PasqalCloud    Family = "pasqal-cloud"
)

// ObjectStore describes an S3-compatible object store used for staged
// payloads.
type ObjectStore struct {
	Endpoint string
	Key      string
	Secret   string
	Region   string
	Bucket   string
}

// Session describes lease parameters for backends with server-side
// execution lanes.
type Session struct {
	// Mode is "dedicated" or "batch".
	Mode string
	// MaxTTL bounds the lifetime of an acquired lease.
	MaxTTL Duration
}

// Resource describes one remote backend: its family, connection parameters
// and credential material. Immutable once constructed.
type Resource struct {
	// Name is the backend resource name, e.g. "ibm_fez". Unique key.
	Name   string
	Family Family

	// Endpoint is the control plane API base URL.
	Endpoint string

	// AuthEndpoint is the identity endpoint used to exchange the API key
	// for a short-lived bearer token. Unused by families with static
	// bearer tokens.
	AuthEndpoint string
	APIKey       string

	// ServiceCRN identifies the tenant; attached to every control plane
	// request.
	ServiceCRN string

	// AuthToken is a static bearer token for families without a refresh
	// endpoint.
	AuthToken string

	// ProjectID scopes batch submissions for the pasqal-cloud family.
	ProjectID string

	Store ObjectStore

	// JobTimeout is the total remote execution budget passed through to
	// the backend and enforced server-side.
	JobTimeout Duration

	// RequestTimeout bounds each outbound HTTP call.
	RequestTimeout Duration

	// PollInterval is the default status polling cadence for callers
	// that wait on terminal states.
	PollInterval Duration

	Session Session
}

// Config is the top-level qres configuration document.
type Config struct {
	Resources []Resource
	Logger    logger.Config
}

// Error describes a malformed or incomplete resource descriptor.
type Error struct {
	Resource string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: resource %q: %s", e.Resource, e.Reason)
}

// DefaultResource returns a descriptor with default timeouts and session
// parameters filled in.
func DefaultResource() Resource {
	return Resource{
		Family:         DirectAccess,
		JobTimeout:     Duration(time.Hour),
		RequestTimeout: Duration(time.Second * 60),
		PollInterval:   Duration(time.Second * 2),
		Session: Session{
			Mode:   "dedicated",
			MaxTTL: Duration(time.Hour * 8),
		},
	}
}

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	return Config{
		Logger: logger.DefaultConfig(),
	}
}

// Validate checks that the descriptor carries everything its family needs.
func (r Resource) Validate() error {
	if r.Name == "" {
		return &Error{Resource: r.Name, Reason: "name is required"}
	}
	if r.Endpoint == "" {
		return &Error{Resource: r.Name, Reason: "endpoint is required"}
	}
	switch r.Family {
	case DirectAccess:
		if r.AuthEndpoint == "" || r.APIKey == "" {
			return &Error{Resource: r.Name, Reason: "auth endpoint and api key are required"}
		}
		if r.Store.Endpoint == "" || r.Store.Bucket == "" {
			return &Error{Resource: r.Name, Reason: "object store endpoint and bucket are required for staged payloads"}
		}
	case RuntimeService:
		if r.AuthEndpoint == "" || r.APIKey == "" {
			return &Error{Resource: r.Name, Reason: "auth endpoint and api key are required"}
		}
		if r.ServiceCRN == "" {
			return &Error{Resource: r.Name, Reason: "service CRN is required"}
		}
	case PasqalCloud:
		if r.AuthToken == "" || r.ProjectID == "" {
			return &Error{Resource: r.Name, Reason: "auth token and project id are required"}
		}
	default:
		return &Error{Resource: r.Name, Reason: fmt.Sprintf("unknown backend family %q", r.Family)}
	}
	if time.Duration(r.JobTimeout) <= 0 {
		return &Error{Resource: r.Name, Reason: "job timeout must be positive"}
	}
	return nil
}

// Find returns the descriptor for the named resource.
func (c Config) Find(name string) (Resource, bool) {
	for _, r := range c.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// Parse parses a YAML doc into the given Config instance. Descriptor fields
// not present in the doc keep their DefaultResource values.
func Parse(raw []byte, conf *Config) error {
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return fmt.Errorf("parsing config: %v", err)
	}
	for i := range conf.Resources {
		def := DefaultResource()
		r := &conf.Resources[i]
		if r.JobTimeout == 0 {
			r.JobTimeout = def.JobTimeout
		}
		if r.RequestTimeout == 0 {
			r.RequestTimeout = def.RequestTimeout
		}
		if r.PollInterval == 0 {
			r.PollInterval = def.PollInterval
		}
		if r.Session.Mode == "" {
			r.Session.Mode = def.Session.Mode
		}
		if r.Session.MaxTTL == 0 {
			r.Session.MaxTTL = def.Session.MaxTTL
		}
	}
	return nil
}

// ParseFile parses a qres config file, which is formatted in YAML,
// and returns a Config struct.
func ParseFile(relpath string, conf *Config) error {
	if relpath == "" {
		return nil
	}

	path, abserr := filepath.Abs(relpath)
	if abserr != nil {
		path = relpath
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config at path %s: %v", path, err)
	}
	return Parse(source, conf)
}
