package session

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/lehigh-university-libraries/mviewer/internal/viewport"
)

const updateRequest = "submitUpdateRequest"

// Command is one parsed wire message
type Command struct {
	Name string
	Args []string
}

// Parse splits a wire message into a command name and shell-style tokens.
// submitUpdateRequest keeps everything after its name as a single argument,
// with one pair of surrounding single quotes removed.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, invalid("", "empty command")
	}

	name, rest, _ := strings.Cut(line, " ")
	if name == updateRequest {
		rest = strings.TrimSpace(rest)
		if len(rest) >= 2 && strings.HasPrefix(rest, "'") && strings.HasSuffix(rest, "'") {
			rest = rest[1 : len(rest)-1]
		}
		if rest == "" {
			return Command{}, invalid(name, "missing JSON document")
		}
		return Command{Name: name, Args: []string{rest}}, nil
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		return Command{}, invalid("", "%v", err)
	}
	if len(tokens) == 0 {
		return Command{}, invalid("", "empty command")
	}
	return Command{Name: tokens[0], Args: tokens[1:]}, nil
}

type handlerFunc func(s *Session, ctx context.Context, cmd Command, emit func(string)) error

type handler struct {
	minArgs int
	maxArgs int // -1 for no limit
	run     handlerFunc
}

var commandTable map[string]handler

func init() {
	commandTable = map[string]handler{
		"update":         {0, 0, (*Session).cmdUpdate},
		updateRequest:    {1, 1, (*Session).cmdSubmitUpdate},
		"resize":         {2, 2, (*Session).cmdResize},
		"zoomReset":      {0, 0, (*Session).cmdZoomReset},
		"zoom":           {4, 4, (*Session).cmdZoomBox},
		"zoomIn":         {0, 0, (*Session).cmdZoomIn},
		"zoomOut":        {0, 0, (*Session).cmdZoomOut},
		"center":         {0, 0, (*Session).cmdCenter},
		"pick":           {2, 2, (*Session).cmdPick},
		"header":         {0, 0, (*Session).cmdHeader},
		"setGrayFile":    {1, 1, (*Session).cmdSetChannelFile},
		"setRedFile":     {1, 1, (*Session).cmdSetChannelFile},
		"setGreenFile":   {1, 1, (*Session).cmdSetChannelFile},
		"setBlueFile":    {1, 1, (*Session).cmdSetChannelFile},
		"setDisplayMode": {0, 1, (*Session).cmdSetDisplayMode},
		"setColorTable":  {1, 1, (*Session).cmdSetColorTable},
		"setStretch":     {4, 4, (*Session).cmdSetStretch},
		"setColor":       {1, 1, (*Session).cmdSetColor},
		"setSymbol":      {2, 4, (*Session).cmdSetSymbol},
		"setCoordSys":    {1, -1, (*Session).cmdSetCoordSys},
		"addGrid":        {1, -1, (*Session).cmdAddGrid},
		"addCatalog":     {1, 4, (*Session).cmdAddCatalog},
		"addFootprint":   {1, 1, (*Session).cmdAddFootprint},
		"addMarker":      {2, 2, (*Session).cmdAddMarker},
		"addLabel":       {3, -1, (*Session).cmdAddLabel},
		"showOverlay":    {1, 1, (*Session).cmdOverlayVisibility},
		"hideOverlay":    {1, 1, (*Session).cmdOverlayVisibility},
		"close":          {0, 0, (*Session).cmdClose},
	}
	for name := range directionCommands() {
		commandTable[name] = handler{0, 0, (*Session).cmdPan}
	}
}

func directionCommands() map[string]viewport.Direction {
	out := map[string]viewport.Direction{}
	for _, name := range []string{
		"panUp", "panDown", "panLeft", "panRight",
		"panUpLeft", "panUpRight", "panDownLeft", "panDownRight",
	} {
		d, _ := viewport.ParseDirection(name)
		out[name] = d
	}
	return out
}

func lookup(cmd Command) (handler, error) {
	h, ok := commandTable[cmd.Name]
	if !ok {
		return handler{}, invalid(cmd.Name, "unknown command")
	}
	n := len(cmd.Args)
	if n < h.minArgs || (h.maxArgs >= 0 && n > h.maxArgs) {
		switch {
		case h.minArgs == h.maxArgs:
			return handler{}, invalid(cmd.Name, "expected %d arguments, got %d", h.minArgs, n)
		case n < h.minArgs:
			return handler{}, invalid(cmd.Name, "expected at least %d arguments, got %d", h.minArgs, n)
		default:
			return handler{}, invalid(cmd.Name, "expected at most %d arguments, got %d", h.maxArgs, n)
		}
	}
	return h, nil
}

func parseFloats(cmd Command) ([]float64, error) {
	out := make([]float64, len(cmd.Args))
	for i, a := range cmd.Args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, invalid(cmd.Name, "argument %d is not a number: %q", i+1, a)
		}
		out[i] = f
	}
	return out, nil
}

func parseInts(cmd Command) ([]int, error) {
	out := make([]int, len(cmd.Args))
	for i, a := range cmd.Args {
		n, err := strconv.Atoi(a)
		if err != nil {
			// accept "800.0" from browser clients that send floats
			f, ferr := strconv.ParseFloat(a, 64)
			if ferr != nil || math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
				return nil, invalid(cmd.Name, "argument %d is not an integer: %q", i+1, a)
			}
			n = int(f)
		}
		out[i] = n
	}
	return out, nil
}

// viewportError turns geometry problems into command errors
func viewportError(cmd Command, err error) error {
	if errors.Is(err, viewport.ErrDegenerateBox) || errors.Is(err, viewport.ErrNoCanvas) || errors.Is(err, viewport.ErrNonFinite) {
		return invalid(cmd.Name, "%v", err)
	}
	return err
}
