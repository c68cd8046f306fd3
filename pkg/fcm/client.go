package fcm

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

// Client sends push notifications through Firebase Cloud Messaging.
type Client struct {
	messaging *messaging.Client
	logg      *logger.Logger
}

// NewClient initializes the FCM client from service account credentials.
func NewClient(ctx context.Context, cfg config.FirebaseConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "firebase credentials not configured")
	}
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init firebase messaging")
	}
	return &Client{messaging: client, logg: logg}, nil
}

// SendToTokens pushes one message to every device token. It returns the
// tokens FCM reported as invalid so the caller can prune them; partial
// failure is not an error.
func (c *Client) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	response, err := c.messaging.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "send push notification")
	}

	var stale []string
	for i, result := range response.Responses {
		if result.Error == nil {
			continue
		}
		if messaging.IsUnregistered(result.Error) || messaging.IsInvalidArgument(result.Error) {
			stale = append(stale, tokens[i])
			continue
		}
		c.logg.Warn(ctx, "push delivery failed: "+result.Error.Error())
	}
	return stale, nil
}
