package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctxWithRealIP(ip string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/debug/vars", nil)
	c.Set("real_ip", ip)
	return c
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()

	tests := []struct {
		name string
		ip   string
		want bool
	}{
		{"loopback", "127.0.0.1", true},
		{"rfc1918 ten-net", "10.1.2.3", true},
		{"rfc1918 172 range", "172.16.0.9", true},
		{"rfc1918 192.168", "192.168.1.50", true},
		{"public address", "203.0.113.7", false},
		{"ipv6 loopback", "::1", true},
		{"ipv6 public", "2001:db8::1", false},
		{"unparseable", "not-an-ip", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allow(ctxWithRealIP(tt.ip)))
		})
	}
}
