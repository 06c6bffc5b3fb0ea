package bootstrap

import (
	"strings"
	"testing"

	"github.com/dalemusser/waffle/config"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "giftmatch",
		SessionKey:    "a-strong-key-with-32-plus-characters",
		SessionName:   "giftmatch-session",
		AdminEmails:   []string{"organizer@example.com"},
	}
}

func TestValidateConfig_OK(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "dev"}
	if err := ValidateConfig(coreCfg, validAppConfig(), testLogger()); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}
}

func TestValidateConfig_BadMongoURI(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	appCfg.MongoURI = "http://not-a-mongo-uri"

	if err := ValidateConfig(coreCfg, appCfg, testLogger()); err == nil {
		t.Fatal("expected error for bad mongo URI")
	}
}

func TestValidateConfig_DevKeyInProd(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "prod"}
	appCfg := validAppConfig()
	appCfg.SessionKey = "dev-only-change-me-please-0123456789ABCDEF"

	if err := ValidateConfig(coreCfg, appCfg, testLogger()); err == nil {
		t.Fatal("expected error for dev session key in prod")
	}
}

func TestValidateConfig_BadAdminEmail(t *testing.T) {
	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	appCfg.AdminEmails = []string{"organizer@example.com", "not-an-address"}

	err := ValidateConfig(coreCfg, appCfg, testLogger())
	if err == nil {
		t.Fatal("expected error for malformed admin email")
	}
	if !strings.Contains(err.Error(), "not-an-address") {
		t.Errorf("error %q should name the bad entry", err)
	}
}

func TestSplitEmails(t *testing.T) {
	got := splitEmails(" a@example.com , , b@example.com,")
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Errorf("splitEmails = %v, want two trimmed addresses", got)
	}
}
