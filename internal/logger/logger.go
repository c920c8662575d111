// internal/logger/logger.go
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options настраивает логгер процесса.
type Options struct {
	Debug      bool
	LogFile    string // пустая строка отключает запись в файл
	MaxSize    int    // мегабайты
	MaxAge     int    // дни
	MaxBackups int    // количество файлов
	Compress   bool   // сжимать ротированные файлы
}

// DefaultOptions возвращает параметры ротации по умолчанию.
func DefaultOptions() Options {
	return Options{
		LogFile:    "sniper.log",
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	}
}

// New создаёт логгер: цветной вывод в консоль и JSON в файл с ротацией.
// Возвращаемая функция закрывает файл логов.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Debug {
		level.SetLevel(zap.DebugLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(PrettyEncoder(), zapcore.Lock(os.Stdout), level),
	}
	closeFn := func() {}

	if opts.LogFile != "" {
		logRotator := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(logRotator), level))
		closeFn = func() { _ = logRotator.Close() }
	}

	return zap.New(zapcore.NewTee(cores...)), closeFn, nil
}
