package logging

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelFiltering(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)

	logger.Debugw("opened", "path", "/dev/gpio0", "fd", 3)
	logger.SetLevel(WARN)
	logger.Debugw("dropped")
	logger.Warnw("busy line stuck", "polls", 7)

	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 2)
	test.That(t, entries[0].Message, test.ShouldEqual, "opened")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].ContextMap()["path"], test.ShouldEqual, "/dev/gpio0")
	test.That(t, entries[1].Message, test.ShouldEqual, "busy line stuck")
	test.That(t, entries[1].ContextMap()["polls"], test.ShouldEqual, int64(7))
	test.That(t, entries[1].Caller.Defined, test.ShouldBeTrue)
	test.That(t, entries[1].Caller.File, test.ShouldEndWith, "impl_test.go")
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	driver := logger.Sublogger("driver")
	spi := driver.Sublogger("spi")
	test.That(t, driver.Name(), test.ShouldEqual, "driver")
	test.That(t, spi.Name(), test.ShouldEqual, "driver.spi")

	spi.SetLevel(ERROR)
	spi.Warnw("hidden")
	driver.Warnw("shown")
	spi.Errorw("failed", "address", 8)

	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 2)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "driver")
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "driver.spi")
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Warnw("odd", "lonely")
	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 1)
	test.That(t, entries[0].ContextMap()["lonely"], test.ShouldEqual, "unpaired log key")
}

func TestLevelJSON(t *testing.T) {
	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	out, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)

	test.That(t, json.Unmarshal([]byte(`"loud"`), &level), test.ShouldNotBeNil)
}
