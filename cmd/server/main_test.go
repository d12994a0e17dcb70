package main

import (
	"testing"

	"dojo/internal/config"
)

func TestNewGateway(t *testing.T) {
	tests := []struct {
		name         string
		serverKey    string
		wantVerifier bool
	}{
		{"manual has no verifier", "", false},
		{"midtrans verifies with its server key", "server-key", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Gateway.MidtransServerKey = tt.serverKey
			g, v := newGateway(cfg)
			if g == nil {
				t.Fatal("newGateway returned no gateway")
			}
			if (v != nil) != tt.wantVerifier {
				t.Errorf("verifier = %v, want present %v", v, tt.wantVerifier)
			}
		})
	}
}
