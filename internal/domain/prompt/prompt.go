// Package prompt is the provider-neutral input of a completion.
package prompt

import "github.com/kailas-cloud/ragchat/internal/domain/conversation"

// Request carries everything a backend needs to answer one query.
// History is the trimmed window, oldest first, ending with the current user turn.
type Request struct {
	Context string
	Query   string
	History []conversation.Turn
}
