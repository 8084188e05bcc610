package logging

import (
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestValidatePattern(t *testing.T) {
	t.Parallel()

	type testCfg struct {
		pattern string
		isValid bool
	}

	tests := []testCfg{
		{"regtool.driver", true},
		{"regtool.driver.*", true},
		{"regtool.*.spi", true},
		{"regtool.*.*", true},
		{"*.spi", true},
		{"*", true},

		{"regtool..driver", false},
		{"regtool.driver.", false},
		{".regtool.driver", false},
		{"regtool.driver.**", false},
		{"_.regtool.driver", false},
		{"regtool.-", false},
		{"regtool./dev/gpio0", false},
	}

	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			t.Parallel()
			test.That(t, validatePattern(tc.pattern), test.ShouldEqual, tc.isValid)
		})
	}
}

func TestApplyPatterns(t *testing.T) {
	type testCfg struct {
		loggerConfig    []LoggerPatternConfig
		loggerNames     []string
		expectedMatches map[string]string
	}

	tests := []testCfg{
		{
			loggerConfig: []LoggerPatternConfig{{Pattern: "regtool.driver", Level: "WARN"}},
			loggerNames:  []string{"regtool.driver", "regtool.driver.spi", "regtool.console"},
			expectedMatches: map[string]string{
				"regtool.driver":     "WARN",
				"regtool.driver.spi": "INFO",
				"regtool.console":    "INFO",
			},
		},
		{
			loggerConfig: []LoggerPatternConfig{{Pattern: "regtool.*", Level: "DEBUG"}},
			loggerNames:  []string{"regtool.driver", "regtool.driver.cs"},
			expectedMatches: map[string]string{
				"regtool.driver":    "DEBUG",
				"regtool.driver.cs": "DEBUG",
			},
		},
		{
			loggerConfig: []LoggerPatternConfig{
				{Pattern: "regtool.*", Level: "DEBUG"},
				{Pattern: "regtool.*.spi", Level: "ERROR"},
			},
			loggerNames: []string{"regtool.driver.spi", "regtool.driver.cs"},
			expectedMatches: map[string]string{
				"regtool.driver.spi": "ERROR",
				"regtool.driver.cs":  "DEBUG",
			},
		},
	}

	for _, tc := range tests {
		loggers := make([]Logger, 0, len(tc.loggerNames))
		for _, name := range tc.loggerNames {
			loggers = append(loggers, NewBlankLogger(name))
		}
		for _, logger := range loggers {
			logger.SetLevel(INFO)
		}
		err := ApplyPatterns(tc.loggerConfig, loggers...)
		test.That(t, err, test.ShouldBeNil)
		for _, logger := range loggers {
			test.That(t, strings.ToUpper(logger.GetLevel().String()), test.ShouldEqual, tc.expectedMatches[logger.Name()])
		}
	}

	t.Run("bad level", func(t *testing.T) {
		err := ApplyPatterns([]LoggerPatternConfig{{Pattern: "regtool", Level: "loud"}}, NewBlankLogger("regtool"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
	})

	t.Run("bad pattern", func(t *testing.T) {
		err := ApplyPatterns([]LoggerPatternConfig{{Pattern: "regtool..x", Level: "info"}}, NewBlankLogger("regtool"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid logger pattern")
	})
}
