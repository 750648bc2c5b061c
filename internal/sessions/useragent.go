package sessions

import (
	"strings"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	ua "github.com/mileusna/useragent"
)

// ClientInfo is the parsed device fingerprint recorded on a session.
type ClientInfo struct {
	BrowserName    *string
	BrowserVersion *string
	OSName         *string
	OSVersion      *string
	DeviceType     string
}

// ParseUserAgent extracts browser, OS and device class from a raw user-agent
// string. Unparseable input yields the desktop device class with nil
// browser/OS fields instead of an error.
func ParseUserAgent(raw string) ClientInfo {
	info := ClientInfo{DeviceType: models.DeviceDesktop}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return info
	}

	parsed := ua.Parse(raw)

	if parsed.Name != "" {
		name := parsed.Name
		info.BrowserName = &name
		if parsed.Version != "" {
			version := parsed.Version
			info.BrowserVersion = &version
		}
	}
	if parsed.OS != "" {
		osName := parsed.OS
		info.OSName = &osName
		if parsed.OSVersion != "" {
			osVersion := parsed.OSVersion
			info.OSVersion = &osVersion
		}
	}

	switch {
	case parsed.Tablet:
		info.DeviceType = models.DeviceTablet
	case parsed.Mobile:
		info.DeviceType = models.DeviceMobile
	default:
		info.DeviceType = models.DeviceDesktop
	}

	return info
}
