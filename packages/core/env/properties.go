package env

import (
	"os"
	"os/user"
	"runtime"
	"sort"
	"strconv"
)

// Properties backs the "system" pseudo-section: a small set of facts
// about the running process, plus anything the caller injects (the CLI
// maps -D key=value here).
type Properties struct {
	values map[string]string
}

// NewProperties seeds the runtime facts. Facts that cannot be determined
// (hostname, user) are simply absent.
func NewProperties() *Properties {
	p := &Properties{values: map[string]string{
		"os.name":    runtime.GOOS,
		"os.arch":    runtime.GOARCH,
		"os.pid":     strconv.Itoa(os.Getpid()),
		"go.version": runtime.Version(),
	}}
	if host, err := os.Hostname(); err == nil {
		p.values["os.hostname"] = host
	}
	if home, err := os.UserHomeDir(); err == nil {
		p.values["user.home"] = home
	}
	if wd, err := os.Getwd(); err == nil {
		p.values["user.dir"] = wd
	}
	if u, err := user.Current(); err == nil {
		p.values["user.name"] = u.Username
	} else if name := os.Getenv("USER"); name != "" {
		p.values["user.name"] = name
	}
	return p
}

// Set adds or replaces a property.
func (p *Properties) Set(key, value string) {
	p.values[key] = value
}

// Lookup resolves a property name.
func (p *Properties) Lookup(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Names returns the property names, sorted.
func (p *Properties) Names() []string {
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
