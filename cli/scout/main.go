package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	scoutcmder "github.com/papercomputeco/scout/cmd/scout"
	"github.com/papercomputeco/scout/pkg/cliui"
	"github.com/papercomputeco/scout/pkg/topic"
)

// exitNoTopic is the exit code when a cycle selects nothing.
const exitNoTopic = 3

func main() {
	cmd := scoutcmder.NewScoutCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %s\n", cliui.FailMark, err)
		if errors.Is(err, topic.ErrNoTopicAvailable) {
			os.Exit(exitNoTopic)
		}
		os.Exit(1)
	}
}
