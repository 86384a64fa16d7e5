package notifications

import (
	"context"
	"log/slog"

	"github.com/asynkron/protoactor-go/actor"
)

// NotifierActor receives trigger events and writes notification rows.
// Senders use fire-and-forget Send, so a slow or failing write never
// blocks or fails the operation that raised the event.
type NotifierActor struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func (a *NotifierActor) Receive(actorCtx actor.Context) {
	ctx := context.Background()
	switch ev := actorCtx.Message().(type) {
	case *MessageSentEvent:
		if err := a.dispatcher.HandleMessageSent(ctx, ev); err != nil {
			a.logger.Warn("message notification failed", "conversation", ev.ConversationID, "error", err)
		}
	case *ReactionEvent:
		if err := a.dispatcher.HandleReaction(ctx, ev); err != nil {
			a.logger.Warn("reaction notification failed", "post", ev.PostID, "error", err)
		}
	case *ContentPublishedEvent:
		if err := a.dispatcher.HandleContentPublished(ctx, ev); err != nil {
			a.logger.Warn("mention notification failed", "post", ev.PostID, "error", err)
		}
	}
}

// ActorNotifier is the production Notifier: every event is a one-way
// message to the notifier actor.
type ActorNotifier struct {
	root *actor.RootContext
	pid  *actor.PID
}

func NewActorNotifier(system *actor.ActorSystem, dispatcher *Dispatcher, logger *slog.Logger) *ActorNotifier {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &NotifierActor{dispatcher: dispatcher, logger: logger}
	})
	pid := system.Root.Spawn(props)
	return &ActorNotifier{root: system.Root, pid: pid}
}

func (n *ActorNotifier) MessageSent(ev *MessageSentEvent) {
	n.root.Send(n.pid, ev)
}

func (n *ActorNotifier) ReactionChanged(ev *ReactionEvent) {
	n.root.Send(n.pid, ev)
}

func (n *ActorNotifier) ContentPublished(ev *ContentPublishedEvent) {
	n.root.Send(n.pid, ev)
}
