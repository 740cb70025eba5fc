package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня; неизвестное имя даёт INFO
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger представляет систему логирования
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File // только у глобального логгера
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// Глобальный экземпляр логгера
var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitLogger инициализирует систему логирования: консоль и файл с временной меткой в dir
func InitLogger(dir string) error {
	if dir == "" {
		dir = "logs"
	}
	// Создаем директорию для логов
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	// Создаем файл для логов с временной меткой
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("engine_%s.log", timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	globalMu.Lock()
	globalLogger = &Logger{
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}
	globalMu.Unlock()

	return nil
}

// InitWriter направляет все сообщения в w без файла (тесты, утилиты)
func InitWriter(w io.Writer, level LogLevel) {
	globalMu.Lock()
	globalLogger = &Logger{
		consoleLogger:   log.New(w, "", log.LstdFlags),
		minConsoleLevel: level,
		minFileLevel:    ERROR + 1,
	}
	globalMu.Unlock()
}

// SetGlobalLevels меняет пороги глобальных выводов (из конфига)
func SetGlobalLevels(console, file LogLevel) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil {
		globalLogger.minConsoleLevel = console
		globalLogger.minFileLevel = file
	}
}

// CloseLogger закрывает логгеры компонентов и глобальный файл лога
func CloseLogger() {
	if err := GetLoggerManager().CloseAll(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil && globalLogger.file != nil {
		globalLogger.file.Close()
	}
	globalLogger = nil
}

// NewLogger создаёт логгер компонента поверх глобальных выводов.
// До InitLogger сообщения уровня INFO и выше идут в stdout.
func NewLogger(component string) (*Logger, error) {
	if component == "" {
		return nil, fmt.Errorf("пустое имя компонента")
	}
	return &Logger{
		component:       component,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// outputs возвращает выводы для сообщения: свои или глобальные
func (l *Logger) outputs() (console, file *log.Logger, minConsole, minFile LogLevel) {
	if l.consoleLogger != nil || l.fileLogger != nil {
		return l.consoleLogger, l.fileLogger, l.minConsoleLevel, l.minFileLevel
	}

	globalMu.RLock()
	g := globalLogger
	globalMu.RUnlock()
	if g == nil {
		return fallbackConsole, nil, l.minConsoleLevel, l.minFileLevel
	}
	return g.consoleLogger, g.fileLogger, max(l.minConsoleLevel, g.minConsoleLevel), max(l.minFileLevel, g.minFileLevel)
}

var fallbackConsole = log.New(os.Stdout, "", log.LstdFlags)

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		logMessage(level, format, args...)
		return
	}
	console, file, minConsole, minFile := l.outputs()

	message := fmt.Sprintf(format, args...)
	if l.component != "" {
		message = fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, message)
	} else {
		message = fmt.Sprintf("[%s] %s", level.String(), message)
	}

	if file != nil && level >= minFile {
		file.Println(message)
	}
	if console != nil && level >= minConsole {
		console.Println(message)
	}
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Close закрывает файл логгера, если он им владеет
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// logMessage внутренняя функция для логирования
func logMessage(level LogLevel, format string, args ...interface{}) {
	globalMu.RLock()
	g := globalLogger
	globalMu.RUnlock()
	if g == nil {
		return
	}
	g.log(level, format, args...)
}

// LogChunkRebuild логирует перестройку меша чанка
func LogChunkRebuild(slot int, chunkX, chunkZ int, solid, transparent int, elapsed time.Duration) {
	logMessage(TRACE, "Slot %d chunk(%d,%d): solid=%d transparent=%d за %s",
		slot, chunkX, chunkZ, solid, transparent, elapsed)
}

// Trace пишет сообщение уровня TRACE в глобальный логгер
func Trace(format string, args ...interface{}) { logMessage(TRACE, format, args...) }

func Debug(format string, args ...interface{}) { logMessage(DEBUG, format, args...) }

func Info(format string, args ...interface{}) { logMessage(INFO, format, args...) }

func Warn(format string, args ...interface{}) { logMessage(WARN, format, args...) }

// Error пишет сообщение уровня ERROR
func Error(format string, args ...interface{}) { logMessage(ERROR, format, args...) }
