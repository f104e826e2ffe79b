package source

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Location identifies where configuration lines come from: a filesystem
// path or an http(s) URL.
type Location struct {
	// Path is set for local locations.
	Path string
	// URL is set for remote locations.
	URL *url.URL
}

// ParseLocation interprets a target string. Anything that does not parse
// as an http(s) or file URL is taken as a filesystem path, so malformed
// URLs degrade to (probably unopenable) paths rather than erroring here.
func ParseLocation(target string) Location {
	u, err := url.Parse(target)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return Location{URL: u}
		case "file":
			return Location{Path: u.Path}
		}
	}
	return Location{Path: target}
}

// IsRemote reports whether the location is fetched over HTTP.
func (l Location) IsRemote() bool {
	return l.URL != nil
}

func (l Location) String() string {
	if l.URL != nil {
		return l.URL.String()
	}
	return l.Path
}

// Sibling resolves an include target against this location. Targets with
// their own scheme stand alone. Absolute paths keep a remote base's
// scheme and host; everything else is joined to the directory of the
// current path, preserving scheme, host, query, and fragment.
func (l Location) Sibling(target string) Location {
	t := ParseLocation(target)
	if t.IsRemote() {
		return t
	}
	explicitFile := strings.HasPrefix(target, "file://")

	if l.IsRemote() && !explicitFile {
		u := *l.URL
		if path.IsAbs(t.Path) {
			u.Path = t.Path
		} else {
			dir := path.Dir(u.Path)
			if dir == "." {
				dir = ""
			}
			u.Path = dir + "/" + t.Path
		}
		return Location{URL: &u}
	}

	if explicitFile || filepath.IsAbs(t.Path) {
		return t
	}
	return Location{Path: filepath.Join(filepath.Dir(l.Path), t.Path)}
}
