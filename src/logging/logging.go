package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelFree Level = iota
	LevelDesc
	LevelInfo
	LevelWarning
	LevelError
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
)

var (
	blacklist = map[string]string{}
	minLevel  = LevelDesc

	protocolPrefixColor  = color.New(color.FgWhite, color.BgBlue).SprintfFunc()
	underlinePrefixColor = color.New(color.Underline).SprintFunc()

	freeLevel    = NewLoggerLevel(LevelFree, "")
	descLevel    = NewLoggerLevel(LevelDesc, "DESCRIPTION", color.FgGreen)
	infoLevel    = NewLoggerLevel(LevelInfo, "INFO", color.FgHiBlue)
	warningLevel = NewLoggerLevel(LevelWarning, "WARNING", color.FgYellow)
	errorLevel   = NewLoggerLevel(LevelError, "ERROR", color.FgRed)

	Freef    = freeLevel.Printf
	Descf    = descLevel.Printf
	Infof    = infoLevel.Printf
	Warningf = warningLevel.Printf
	Errorf   = errorLevel.Printf
)

const (
	ProtoAPP    = "APP"
	ProtoCONFIG = "CONFIG"
	ProtoHTTP   = "HTTP"
	ProtoWS     = "WS"
	ProtoPCAP   = "PCAP"
	ProtoUDP    = "UDP"
	ProtoRTP    = "RTP"
	ProtoRTCP   = "RTCP"
	ProtoSRTP   = "SRTP"
	ProtoSRTCP  = "SRTCP"
)

type ColorFunc func(format string, v ...interface{}) string

type LoggerLevel struct {
	level          Level
	logLevelPrefix string
	colorFunc      ColorFunc
}

func NewLoggerLevel(level Level, logLevelPrefix string, colorAttributes ...color.Attribute) *LoggerLevel {
	return &LoggerLevel{
		level:          level,
		logLevelPrefix: logLevelPrefix,
		colorFunc:      color.New(colorAttributes...).SprintfFunc(),
	}
}

// ParseLevel maps a config value to a Level. Unknown names fall back to desc.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	}
	return LevelDesc
}

func SetMinLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

// SetColor turns colored output on or off, e.g. when writing to a file.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// SetOutput redirects log lines; nil restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func (l *LoggerLevel) processString(s string, colorFunc ColorFunc) string {
	startTag := "<u>"
	endTag := "</u>"
	for startIdx := strings.Index(s, startTag); startIdx > -1; startIdx = strings.Index(s, startTag) {
		endIdx := strings.Index(s, endTag)
		if endIdx < startIdx {
			// Unbalanced markup, drop the tag and keep the text.
			s = s[:startIdx] + s[startIdx+len(startTag):]
			continue
		}
		tagBody := s[startIdx+len(startTag) : endIdx]
		// underlinePrefixColor resets formatting, so the rest is colored again.
		s = s[:startIdx] + underlinePrefixColor(tagBody) + colorFunc("%s", s[endIdx+len(endTag):])
	}
	return s
}

func (l *LoggerLevel) printNow() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *LoggerLevel) Printf(protocolPrefix string, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if l.level != LevelFree && l.level < minLevel {
		return
	}
	timeText := l.printNow()
	protocolText := ""
	if protocolPrefix != "" {
		protocolText = protocolPrefixColor("[%s]", protocolPrefix)
		for i := len(protocolPrefix); i < 6; i++ {
			protocolText = protocolText + " "
		}
	}
	bodyText := fmt.Sprintf(format, v...)

	for searchFor, replaceWith := range blacklist {
		bodyText = strings.ReplaceAll(bodyText, searchFor, replaceWith)
	}

	if l.logLevelPrefix != "" {
		bodyText = l.colorFunc("[%s] %s\n", l.logLevelPrefix, bodyText)
	} else {
		bodyText = l.colorFunc("%s\n", bodyText)
	}
	bodyText = l.processString(bodyText, l.colorFunc)
	fmt.Fprintf(output, "%s %s %s", timeText, protocolText, bodyText)
}

func LineSpacer(lineCount int) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprint(output, strings.Repeat("\n", lineCount))
}

// AddToBlacklist replaces every occurrence of searchFor in later log lines.
// Used to keep SDES keys and addresses off the console.
func AddToBlacklist(searchFor string, replaceWith string) {
	if searchFor == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	blacklist[searchFor] = replaceWith
}
