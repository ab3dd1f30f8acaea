package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/3leaps/getrel/internal/model"
)

// promptAsset returns a chooser that lists the ambiguous candidates and
// reads a selection. An empty answer or anything unparseable declines, which
// makes the run fail the same way an unattended one would.
func promptAsset(in io.Reader, out io.Writer) func(string, []model.Asset) (model.Asset, bool) {
	reader := bufio.NewReader(in)
	return func(name string, candidates []model.Asset) (model.Asset, bool) {
		fmt.Fprintf(out, "%s: several assets match:\n", name)
		for i, a := range candidates {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, a.Name)
		}
		fmt.Fprintf(out, "pick one (1-%d, empty to abort): ", len(candidates))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return model.Asset{}, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(candidates) {
			return model.Asset{}, false
		}
		return candidates[n-1], true
	}
}
