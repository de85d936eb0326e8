package teams

import (
	"context"
	"fmt"

	"github.com/vid-verifier/internal/domain"
	"github.com/vid-verifier/internal/infrastructure/webhook"
)

// Notifier renders notifications as adaptive cards and posts them to a Teams webhook.
type Notifier struct {
	poster   webhook.Poster
	endpoint string
}

func NewNotifier(poster webhook.Poster, endpoint string) *Notifier {
	return &Notifier{poster: poster, endpoint: endpoint}
}

func (n *Notifier) Notify(ctx context.Context, note domain.Notification) error {
	msg, err := render(note)
	if err != nil {
		return err
	}
	if err := n.poster.PostJSON(ctx, n.endpoint, msg); err != nil {
		return fmt.Errorf("teams notification %s: %w", note.ID, err)
	}
	return nil
}

func render(note domain.Notification) (message, error) {
	b := &cardBuilder{}
	switch note.Kind {
	case domain.NotificationPresentationPending:
		b.title(note.CallerName + " - verification pending").
			description(fmt.Sprintf("[%s] Please scan the QR code to proceed with Verified ID verification.", note.RequestID)).
			image(note.QRCode, "QR Code")
	case domain.NotificationPresentationVerified:
		b.title(note.CallerName + " - identity verified").
			description(fmt.Sprintf("[%s] Verified ID presentation succeeded.", note.RequestID))
	case domain.NotificationCallbackCompleted:
		b.title(note.CallerName + " - callback completed").
			description(fmt.Sprintf("[%s] Verification result delivered to caller.", note.RequestID))
	default:
		return message{}, fmt.Errorf("unknown notification kind %q", note.Kind)
	}
	return b.message(), nil
}
