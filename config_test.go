package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  Config{port: 8080, reconnectGrace: 30 * time.Second, sessionTimeout: time.Hour},
		},
		{
			name:    "port zero",
			cfg:     Config{port: 0},
			wantErr: true,
		},
		{
			name:    "port too high",
			cfg:     Config{port: 65536},
			wantErr: true,
		},
		{
			name:    "cert without key",
			cfg:     Config{port: 8080, tlsCert: "/etc/ssl/cert.pem"},
			wantErr: true,
		},
		{
			name:    "key without cert",
			cfg:     Config{port: 8080, tlsKey: "/etc/ssl/key.pem"},
			wantErr: true,
		},
		{
			name: "cert and key together",
			cfg:  Config{port: 8080, tlsCert: "/etc/ssl/cert.pem", tlsKey: "/etc/ssl/key.pem"},
		},
		{
			name:    "negative reconnect grace",
			cfg:     Config{port: 8080, reconnectGrace: -time.Second},
			wantErr: true,
		},
		{
			name:    "negative session timeout",
			cfg:     Config{port: 8080, sessionTimeout: -time.Minute},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert = "/etc/ssl/cert.pem"
	cfg.tlsKey = "/etc/ssl/key.pem"
	assert.Equal(t, "https", cfg.scheme())
}
