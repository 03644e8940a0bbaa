package telegram

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kukucorn/ai-running-coach/internal/duration"
)

var (
	// ErrRecordUsage means /record did not get exactly two arguments.
	ErrRecordUsage = errors.New("record expects exactly two arguments")
	// ErrRecordFormat means a /record argument could not be parsed.
	ErrRecordFormat = errors.New("record arguments are malformed")
)

// Command is the parsed intent of one inbound message.
type Command interface {
	isCommand()
}

type StartCommand struct{}

type HelpCommand struct{}

// RecordCommand is only built when both arguments parsed and the distance is positive.
type RecordCommand struct {
	DistanceKm float64
	Duration   duration.Duration
}

type FreeTextCommand struct {
	Body string
}

// UnknownCommand is a slash command the bot does not know.
type UnknownCommand struct {
	Name string
}

// ForeignCommand is a "/name@bot" command addressed to a different bot.
type ForeignCommand struct {
	Name string
	Bot  string
}

func (StartCommand) isCommand()    {}
func (HelpCommand) isCommand()     {}
func (RecordCommand) isCommand()   {}
func (FreeTextCommand) isCommand() {}
func (UnknownCommand) isCommand()  {}
func (ForeignCommand) isCommand()  {}

// ParseCommand strips a leading "/name" or "/name@bot" token and parses the
// rest. Anything not starting with '/' is free text. A command suffixed with a
// username other than self yields ForeignCommand; an empty self accepts any
// suffix.
func ParseCommand(text, self string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return FreeTextCommand{Body: text}, nil
	}
	fields := strings.Fields(trimmed)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if i := strings.IndexByte(name, '@'); i >= 0 {
		bot := name[i+1:]
		name = name[:i]
		if self != "" && !strings.EqualFold(bot, self) {
			return ForeignCommand{Name: name, Bot: bot}, nil
		}
	}
	args := fields[1:]

	switch name {
	case "start":
		return StartCommand{}, nil
	case "help":
		return HelpCommand{}, nil
	case "record":
		return parseRecord(args)
	default:
		return UnknownCommand{Name: name}, nil
	}
}

func parseRecord(args []string) (Command, error) {
	// arity is checked before any numeric parsing
	if len(args) != 2 {
		return nil, ErrRecordUsage
	}
	km, err := strconv.ParseFloat(args[0], 64)
	if err != nil || math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return nil, fmt.Errorf("%w: distance %q", ErrRecordFormat, args[0])
	}
	d, err := duration.Parse(args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordFormat, err)
	}
	if km == 0 {
		return nil, duration.ErrZeroDistance
	}
	return RecordCommand{DistanceKm: km, Duration: d}, nil
}
