package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StdoutNotifier prints events as JSON lines, one per event.
type StdoutNotifier struct {
	out io.Writer
}

// NewStdoutNotifier creates a stdout notifier.
func NewStdoutNotifier() *StdoutNotifier {
	return &StdoutNotifier{out: os.Stdout}
}

func (s *StdoutNotifier) Name() string {
	return "stdout"
}

func (s *StdoutNotifier) Send(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}
