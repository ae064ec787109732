package router

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
)

// AppInfo describes the application issuing requests.
type AppInfo struct {
	OS      string
	Name    string
	Version string
	Build   string
}

// DefaultAppInfo derives AppInfo from the running binary.
func DefaultAppInfo() AppInfo {
	info := AppInfo{
		OS:      runtime.GOOS,
		Name:    filepath.Base(os.Args[0]),
		Version: "dev",
		Build:   "unknown",
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}

	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			info.Build = s.Value[:min(len(s.Value), 7)]
		}
	}

	return info
}

// UserAgentPolicy renders the User-Agent header from the app's info.
type UserAgentPolicy func(AppInfo) string

var (
	// DisplayName uses the application name alone.
	DisplayName UserAgentPolicy = func(a AppInfo) string { return a.Name }
	// Composed renders "OS - name version (build)".
	Composed UserAgentPolicy = func(a AppInfo) string {
		return fmt.Sprintf("%s - %s %s (%s)", a.OS, a.Name, a.Version, a.Build)
	}
)

// cleanUserAgent drops every rune that is neither allowed in a URL path
// nor a space or tab.
func cleanUserAgent(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || (r < 0x80 && pathAllowed(byte(r))) {
			return r
		}
		return -1
	}, s)
}

func pathAllowed(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	return strings.IndexByte("-._~!$&'()*+,;=:@/", c) >= 0
}
