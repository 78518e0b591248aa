package governor

import (
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/boardtune/internal/model"
)

// execStartPattern extracts the governor value from the generated unit's
// ExecStart line. Only lines that actually write scaling_governor count;
// unrelated ExecStart content never matches.
var execStartPattern = regexp.MustCompile(`^ExecStart=.*echo\s+([a-z]+)\s+\|\s*tee\s+\S*scaling_governor`)

// ParseUnit extracts the configured governor from a unit file's content,
// returning NotConfigured when no scaling_governor ExecStart line exists.
func ParseUnit(content string) model.Setting {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := execStartPattern.FindStringSubmatch(line); m != nil {
			return model.ConfiguredWith(m[1])
		}
	}
	return model.NotConfigured()
}
