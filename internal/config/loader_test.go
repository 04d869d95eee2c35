package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rebound/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SampleSize, convey.ShouldEqual, 20)
				convey.So(cfg.MaxRosterRows, convey.ShouldEqual, 5_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("REBOUND_ADDR", ":8080")
			_ = os.Setenv("REBOUND_SAMPLE_SIZE", "50")
			_ = os.Setenv("REBOUND_SAMPLE_SEED", "7")
			_ = os.Setenv("REBOUND_MAX_UPLOAD_BYTES", "4096")
			_ = os.Setenv("REBOUND_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SampleSize, convey.ShouldEqual, 50)
				convey.So(cfg.SampleSeed, convey.ShouldEqual, 7)
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 4096)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
# roster settings
addr: ":9090"
sample_size: 30
max_roster_rows: 1000
log_level: debug
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("REBOUND_CONFIG", tmpFile)
			_ = os.Setenv("REBOUND_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")         // env
				convey.So(cfg.SampleSize, convey.ShouldEqual, 30)        // file
				convey.So(cfg.MaxRosterRows, convey.ShouldEqual, 1000)   // file
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")     // file
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 1<<20) // default
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("REBOUND_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("REBOUND_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("REBOUND_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("REBOUND_SAMPLE_SIZE", "twenty")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative sample size", func() {
			_ = os.Setenv("REBOUND_SAMPLE_SIZE", "-3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should reject the value", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sample_size must be positive")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"REBOUND_CONFIG",
		"REBOUND_ADDR",
		"REBOUND_LOG_LEVEL",
		"REBOUND_LOG_FORMAT",
		"REBOUND_MAX_UPLOAD_BYTES",
		"REBOUND_MAX_ROSTER_ROWS",
		"REBOUND_SAMPLE_SIZE",
		"REBOUND_SAMPLE_SEED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rebound-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
