package logger

// Sink is a logging backend. Implementations receive the message plus
// alternating key/value pairs.
type Sink interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger fans log calls out to every configured sink.
type Logger struct {
	sinks []Sink
}

var singleton *Logger

func getSingleton() *Logger {
	return singleton
}

// Init installs the global logger. Call once at startup before any
// logging function; logging before Init is a silent no-op.
func Init(sinks ...Sink) {
	singleton = &Logger{
		sinks: sinks,
	}
}

// Debug writes a message at DEBUG level to all configured sinks.
func Debug(message string, keyvals ...any) {
	logger := getSingleton()
	if logger == nil {
		return
	}

	for _, sink := range logger.sinks {
		sink.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all configured sinks.
func Info(message string, keyvals ...any) {
	logger := getSingleton()
	if logger == nil {
		return
	}

	for _, sink := range logger.sinks {
		sink.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all configured sinks.
func Warn(message string, keyvals ...any) {
	logger := getSingleton()
	if logger == nil {
		return
	}

	for _, sink := range logger.sinks {
		sink.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all configured sinks.
func Error(message string, keyvals ...any) {
	logger := getSingleton()
	if logger == nil {
		return
	}

	for _, sink := range logger.sinks {
		sink.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	logger := getSingleton()
	if logger == nil {
		return
	}

	for _, sink := range logger.sinks {
		sink.Fatal(message, keyvals...)
	}
}
