package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
)

var (
	isDebug = false

	critColor    = color.RGB(255, 0, 0).SprintFunc()
	debugColor   = color.RGB(255, 165, 0).SprintFunc()
	warningColor = color.RGB(255, 255, 0).SprintFunc()
	eventColor   = color.RGB(0, 255, 0).SprintFunc()
)

type loggerConfig struct {
	Logging *struct {
		// persist log output to disk in addition to stdout
		Enabled bool `yaml:"enabled"`
		// target directory, "./log" when empty
		Directory string `yaml:"directory"`
		// time layout used for the log file name
		FilenameFormat string `yaml:"filename_format"`
	} `yaml:"logging"`

	NoColor bool `yaml:"no_color"`
}

// InitLogger configures the process-wide logger. Settings are optional;
// without a settings file logs go to stdout, colorless.
// The returned file, if any, must be closed on shutdown.
func InitLogger(debug bool, configPath string) *os.File {
	isDebug = debug
	color.NoColor = true

	log.SetPrefix("[BOT] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lmsgprefix)

	input, err := os.Open(configPath)
	if err != nil {
		Info("No logger settings file, using defaults")
		return nil
	}
	defer input.Close()

	cnf := &loggerConfig{}
	if err = yaml.NewDecoder(input).Decode(cnf); err != nil {
		Warning("Failed to load logger settings", err)
		return nil
	}

	color.NoColor = cnf.NoColor

	if cnf.Logging != nil && cnf.Logging.Enabled {
		if cnf.Logging.Directory == "" {
			cnf.Logging.Directory = "./log"
		}
		if cnf.Logging.FilenameFormat == "" {
			cnf.Logging.FilenameFormat = "bot"
		}

		fileName := fmt.Sprintf("%s/%s.log", cnf.Logging.Directory, time.Now().Format(cnf.Logging.FilenameFormat))

		logFile, err := os.OpenFile(fileName, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			Warning("Cannot open log file, logs are not persisted:", err)
			return nil
		}
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))

		return logFile
	}

	return nil
}

func Info(v ...interface{}) {
	log.Print("[INFO] ", fmt.Sprintln(v...))
}

func Event(v ...interface{}) {
	log.Print(eventColor("[Event] ", fmt.Sprintln(v...)))
}

func Warning(v ...interface{}) {
	log.Print(warningColor("[WARNING] ", fmt.Sprintln(v...)))
}

// Debug pretty-prints non-string arguments as indented JSON.
func Debug(v ...interface{}) {
	if !isDebug {
		return
	}

	message := new(bytes.Buffer)
	for _, item := range v {
		if s, ok := item.(string); ok {
			_, _ = fmt.Fprintf(message, "%s ", s)
		} else {
			raw, _ := json.MarshalIndent(item, "", " ")
			_, _ = fmt.Fprintf(message, "%s ", raw)
		}
	}

	log.Print(debugColor("[DEBUG] ", message))
}

// Crit logs and terminates the process.
func Crit(v ...interface{}) {
	log.Printf(critColor("Critical error: %s"), v)
	os.Exit(1)
}
