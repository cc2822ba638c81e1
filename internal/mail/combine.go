package mail

import (
	"fmt"
	"strings"
)

// CombineThreads renders a batch of threads into one text block for the
// model, each thread under a numbered separator with its subject, date,
// and message count.
func CombineThreads(threads []Thread) string {
	parts := make([]string, 0, len(threads)*5)
	for i, thread := range threads {
		parts = append(parts,
			fmt.Sprintf("=== EMAIL/THREAD %d ===", i+1),
			fmt.Sprintf("Subject: %s", thread.Subject),
			fmt.Sprintf("Date: %s", thread.Date),
			fmt.Sprintf("Messages in thread: %d", thread.MessageCount),
			fmt.Sprintf("\n%s\n", thread.Body),
		)
	}
	return strings.Join(parts, "\n")
}
