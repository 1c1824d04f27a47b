package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// PostCreatedEvent is handed to the notifier after a post is persisted.
type PostCreatedEvent struct {
	AuthorName string
	PostTitle  string
	PostURL    string
}

// Notifier is the outbound notification boundary. The real mailer lives
// outside this system; implementations must treat delivery as fire-and-forget.
type Notifier interface {
	PostCreated(ctx context.Context, event PostCreatedEvent)
}

// LogNotifier records notification events in the application log. It stands
// in where no external mailer is configured.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n *LogNotifier) PostCreated(_ context.Context, event PostCreatedEvent) {
	n.Logger.WithFields(logrus.Fields{
		"author": event.AuthorName,
		"title":  event.PostTitle,
		"url":    event.PostURL,
	}).Info("post created notification")
}
