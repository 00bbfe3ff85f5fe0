package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed allowlist.yaml
var defaultAllowlist []byte

// Allowlist declares every route an entrypoint may serve, with its class.
type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
}

// Allows reports whether method on path is declared for entrypoint.
func (a Allowlist) Allows(entrypoint, method, path string) bool {
	for _, r := range a.Entrypoints[entrypoint].Routes {
		if r.Path != path {
			continue
		}
		for _, m := range r.Methods {
			if strings.EqualFold(m, method) {
				return true
			}
		}
	}
	return false
}

func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, err
	}
	if a.Version != 1 {
		return Allowlist{}, errors.New("allowlist: unsupported version")
	}
	if a.Entrypoints == nil {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	for name, ep := range a.Entrypoints {
		for _, r := range ep.Routes {
			if !RouteClass(r.RouteClass).Known() {
				return Allowlist{}, fmt.Errorf("allowlist: %s: unknown route_class %q for %s", name, r.RouteClass, r.Path)
			}
			for _, m := range r.Methods {
				switch strings.ToUpper(m) {
				case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				default:
					return Allowlist{}, fmt.Errorf("allowlist: %s: unsupported method %q for %s", name, m, r.Path)
				}
			}
		}
	}
	return a, nil
}

// LoadAllowlist reads path, or the built-in allowlist when path is empty.
func LoadAllowlist(path string) (Allowlist, error) {
	if strings.TrimSpace(path) == "" {
		return ParseAllowlistYAML(defaultAllowlist)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, err
	}
	return ParseAllowlistYAML(b)
}
