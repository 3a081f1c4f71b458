package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_ReturnsConfigOnSuccess(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg := MustLoad()
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("APP_ENV", "DEVELOPMENT") // lowercased
	t.Setenv("DB_PATH", "db.sqlite")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Domain
	t.Setenv("TWILIO_ACCOUNT_SID", "ACxxx")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_SENDER_PHONE_NUMBER", "+15550000000")
	t.Setenv("TURNSTILE_SECRET_KEY", "ts-secret")
	t.Setenv("SEND_TIMEOUT", "5s")
	t.Setenv("SEND_CONCURRENCY", "4")

	// OTEL
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "notif-test")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.MaxHeaderBytes != 8192 {
		t.Fatalf("server settings wrong: %+v", cfg)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode normalization failed: %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging settings wrong: %q pretty=%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath normalization failed: %q", cfg.APIBasePath)
	}
	if cfg.AppEnv != "development" || !cfg.IsDevelopment() {
		t.Fatalf("AppEnv wrong: %q", cfg.AppEnv)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate defaults not applied on parse failure: %v %v", cfg.RateRPS, cfg.RateBurst)
	}
	if want := []string{"https://a.com", "http://b"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("CORS origins = %v; want %v", cfg.CORS.AllowedOrigins, want)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security settings wrong: %+v", cfg.Security)
	}
	if cfg.Twilio.AccountSID != "ACxxx" || cfg.Twilio.FromNumber != "+15550000000" {
		t.Fatalf("twilio settings wrong: %+v", cfg.Twilio)
	}
	if cfg.Turnstile.SecretKey != "ts-secret" || !strings.Contains(cfg.Turnstile.VerifyURL, "challenges.cloudflare.com") {
		t.Fatalf("turnstile settings wrong: %+v", cfg.Turnstile)
	}
	if cfg.Dispatch.SendTimeout != 5*time.Second || cfg.Dispatch.SendConcurrency != 4 {
		t.Fatalf("dispatch settings wrong: %+v", cfg.Dispatch)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "notif-test" || cfg.OTEL.SampleRatio != 0.25 {
		t.Fatalf("otel settings wrong: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.AppEnv != "production" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Dispatch.SendTimeout != 10*time.Second || cfg.Dispatch.SendConcurrency != 1 {
		t.Fatalf("dispatch defaults wrong: %+v", cfg.Dispatch)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
}

// --- Load validation failures ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"zero read timeout", "READ_TIMEOUT", "0s", "timeouts"},
		{"negative rate rps", "RATE_RPS", "-1", "RATE_RPS"},
		{"zero rate burst", "RATE_BURST", "0", "RATE_BURST"},
		{"negative hsts", "HSTS_MAX_AGE", "-1h", "HSTS_MAX_AGE"},
		{"zero send timeout", "SEND_TIMEOUT", "0s", "SEND_TIMEOUT"},
		{"zero send concurrency", "SEND_CONCURRENCY", "0", "SEND_CONCURRENCY"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() err = %v; want mention of %s", err, tc.want)
			}
		})
	}
}

// --- helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api", "/api"},
		{"/api/v1/", "/api/v1"},
		{"  /api//  ", "/api"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Fatalf("splitCSV(\"\") = %v; want nil", got)
	}
	want := []string{"a", "b"}
	if got := splitCSV(" a ,  , b "); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV = %v; want %v", got, want)
	}
}

func TestGetboolAndGetdur(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	if getbool("X_BOOL", true) {
		t.Fatalf("getbool off should be false")
	}
	t.Setenv("X_BOOL", "junk")
	if !getbool("X_BOOL", true) {
		t.Fatalf("getbool junk should fall back to default")
	}
	t.Setenv("X_DUR", "90m")
	if getdur("X_DUR", time.Second) != 90*time.Minute {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("X_DUR", "soon")
	if getdur("X_DUR", time.Second) != time.Second {
		t.Fatalf("getdur junk should fall back to default")
	}
}
