package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WALLET_PARTNER_CODE", "")
	t.Setenv("BANK_TMN_CODE", "")
	t.Setenv("PAYMENT_DEDUP_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Payment.DedupTTL != 10*time.Minute {
		t.Errorf("DedupTTL = %v, want fallback 10m", cfg.Payment.DedupTTL)
	}
	if cfg.Payment.Wallet.Configured() {
		t.Error("wallet should not be configured without credentials")
	}
	if cfg.Payment.Bank.Configured() {
		t.Error("bank should not be configured without credentials")
	}
	if cfg.Payment.Bank.CurrCode != "VND" {
		t.Errorf("CurrCode = %q, want VND", cfg.Payment.Bank.CurrCode)
	}
}

func TestConfiguredHelpers(t *testing.T) {
	if !(CardConfig{SecretKey: "sk"}).Configured() {
		t.Error("card with secret key should be configured")
	}
	if (WalletConfig{PartnerCode: "p", AccessKey: "a"}).Configured() {
		t.Error("wallet without secret key should not be configured")
	}
	if !(BankConfig{TmnCode: "t", HashSecret: "h"}).Configured() {
		t.Error("bank with tmn code and secret should be configured")
	}
}

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		wantDSN string
		wantErr bool
	}{
		{driver: "mysql", wantDSN: "u:p@tcp(h:3306)/tl?"},
		{driver: "postgres", wantDSN: "host=h port=3306 user=u password=p dbname=tl"},
		{driver: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := DatabaseConfig{Driver: tt.driver, Host: "h", Port: "3306", Name: "tl", User: "u", Pass: "p", Charset: "utf8mb4", SSLMode: "disable"}
			d, err := cfg.Dialector()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported driver")
				}
				return
			}
			if err != nil || d == nil {
				t.Fatalf("Dialector() = %v, %v", d, err)
			}
			if !strings.HasPrefix(cfg.DSN(), tt.wantDSN) {
				t.Errorf("DSN() = %q, want prefix %q", cfg.DSN(), tt.wantDSN)
			}
		})
	}
}
