package logging

import (
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestSubloggerNames(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	left := logger.Sublogger("robot").Sublogger("left")
	left.Infow("homed", "joints", 6)

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "robot.left")
	test.That(t, entries[0].Message, test.ShouldEqual, "homed")
	test.That(t, entries[0].ContextMap()["joints"], test.ShouldEqual, int64(6))
}

func TestSetLevel(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)

	logger.Debug("visible")
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("visible")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("hidden").Len(), test.ShouldEqual, 0)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		t.Run(tc.in, func(t *testing.T) {
			level, err := LevelFromString(tc.in)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, level, test.ShouldEqual, tc.expected)
			test.That(t, levelFromZap(level.AsZap()), test.ShouldEqual, tc.expected)
		})
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}

func TestBlankLogger(t *testing.T) {
	logger := NewBlankLogger("quiet")
	logger.Errorw("dropped", "k", "v")
	test.That(t, logger.Sublogger("child").GetLevel(), test.ShouldEqual, DEBUG)
}

var errSyncFailed = errors.New("sync failed")

type failingSyncer struct{}

func (failingSyncer) Write(p []byte) (int, error) { return len(p), nil }

func (failingSyncer) Sync() error { return errSyncFailed }

func TestSync(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(NewZapLoggerConfig().EncoderConfig), failingSyncer{}, level)
	logger := &impl{SugaredLogger: zap.New(core).Sugar(), name: "sync", level: level}
	logger.Info("buffered")

	err := logger.Sync()
	test.That(t, errors.Is(err, errSyncFailed), test.ShouldBeTrue)
	test.That(t, logger.Sublogger("child").Sync(), test.ShouldBeError, errSyncFailed)

	test.That(t, NewBlankLogger("quiet").Sync(), test.ShouldBeNil)
}
