package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tebeka/selenium"
)

var namedKeys = map[string]string{
	"BACKSPACE": selenium.BackspaceKey,
	"DELETE":    selenium.DeleteKey,
	"ENTER":     selenium.EnterKey,
	"ESCAPE":    selenium.EscapeKey,
	"TAB":       selenium.TabKey,
	"SPACE":     selenium.SpaceKey,
	"HOME":      selenium.HomeKey,
	"END":       selenium.EndKey,
	"LEFT":      selenium.LeftArrowKey,
	"RIGHT":     selenium.RightArrowKey,
	"UP":        selenium.UpArrowKey,
	"DOWN":      selenium.DownArrowKey,
}

// keysFor turns a step argument into the keys to send. A bare word names a
// special key, e.g. DELETE; quoted text is typed as is.
func keysFor(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, `"`) {
		text, err := strconv.Unquote(arg)
		if err != nil {
			return "", fmt.Errorf("invalid text %s: %w", arg, err)
		}
		return text, nil
	}
	if key, ok := namedKeys[strings.ToUpper(arg)]; ok {
		return key, nil
	}
	return "", fmt.Errorf("unknown key %q", arg)
}
