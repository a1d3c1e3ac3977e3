package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPIsLocal(t *testing.T) {
	cases := []struct {
		addr            string
		expectedIsLocal bool
	}{
		{addr: "83.12.53.65", expectedIsLocal: false},
		{addr: "127.23.0.1", expectedIsLocal: false},
		{addr: "127.0.0.1", expectedIsLocal: true},
		{addr: "::1", expectedIsLocal: true},
		{addr: "172.20.0.1", expectedIsLocal: true},
		{addr: "172.19.0.1", expectedIsLocal: true},
		{addr: "172.19.0.2", expectedIsLocal: false},
		{addr: "111.12.56.65", expectedIsLocal: false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expectedIsLocal, IPIsLocal(tc.addr), tc.addr)
	}
}

func TestReadUserIP(t *testing.T) {
	testCases := []struct {
		name        string
		remoteAddr  string
		realIP      string
		forwarded   string
		expectedIP  string
		expectedErr bool
	}{
		{name: "remote addr with port", remoteAddr: "83.12.53.65:2145", expectedIP: "83.12.53.65"},
		{name: "real ip header wins", remoteAddr: "10.0.0.1:80", realIP: "91.1.2.3", expectedIP: "91.1.2.3"},
		{name: "first forwarded hop", remoteAddr: "10.0.0.1:80", forwarded: "91.1.2.4, 10.0.0.1", expectedIP: "91.1.2.4"},
		{name: "localhost", remoteAddr: "127.0.0.1:35325", expectedIP: "localhost"},
		{name: "docker bridge", remoteAddr: "172.20.0.1:60102", expectedIP: "localhost"},
		{name: "garbage", remoteAddr: "not-an-ip", expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-Ip", tc.realIP)
			}
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			ip, err := ReadUserIP(req)
			if tc.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedIP, ip)
		})
	}
}
