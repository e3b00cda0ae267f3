package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"
)

// ClientInfo describes the caller of a request
type ClientInfo struct {
	IP         string `json:"ip"`
	UserAgent  string `json:"user_agent"`
	DeviceType string `json:"device_type"` // mobile, tablet, desktop, unknown
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
}

// ClientFromRequest extracts the caller's address and device from the request
func ClientFromRequest(c *gin.Context) ClientInfo {
	info := ParseUserAgent(c.Request.UserAgent())
	info.IP = RealIP(c)
	return info
}

// ParseUserAgent parses a User-Agent string into device information
func ParseUserAgent(userAgent string) ClientInfo {
	if userAgent == "" {
		return ClientInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	info := ClientInfo{
		UserAgent:  userAgent,
		DeviceType: deviceType(parser),
		OS:         osName(parser),
		IsBot:      parser.Bot(),
	}

	info.Browser, _ = parser.Browser()
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	return info
}

func deviceType(parser *ua.UserAgent) string {
	if !parser.Mobile() {
		return "desktop"
	}
	lower := strings.ToLower(parser.UA())
	for _, hint := range []string{"ipad", "tablet", "kindle", "sm-t"} {
		if strings.Contains(lower, hint) {
			return "tablet"
		}
	}
	return "mobile"
}

func osName(parser *ua.UserAgent) string {
	osInfo := parser.OSInfo()
	if osInfo.Name == "" {
		return "Unknown"
	}
	if osInfo.Version != "" {
		return osInfo.Name + " " + osInfo.Version
	}
	return osInfo.Name
}

// RealIP prefers X-Real-IP, then the first public address in
// X-Forwarded-For, then gin's ClientIP.
func RealIP(c *gin.Context) string {
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		if ip := net.ParseIP(realIP); ip != nil && !ip.IsPrivate() {
			return realIP
		}
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ",") {
			candidate := strings.TrimSpace(part)
			ip := net.ParseIP(candidate)
			if ip != nil && !ip.IsPrivate() && !ip.IsLoopback() {
				return candidate
			}
		}
	}

	return c.ClientIP()
}
