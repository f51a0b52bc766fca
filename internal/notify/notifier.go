// Package notify delivers operator messages and report files over the
// messaging channel.
package notify

import "context"

// Notifier is the narrow outward transport the pipeline produces to. Each
// configured recipient is addressed independently; a failure for one must
// not block delivery to the others.
type Notifier interface {
	SendText(ctx context.Context, text string) error
	SendFile(ctx context.Context, path, caption string) error
}
