package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FCMDispatcher sends messages to an FCM-compatible HTTP endpoint.
type FCMDispatcher struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

// NewFCMDispatcher creates a dispatcher posting to the given endpoint,
// authenticated with the server key.
func NewFCMDispatcher(endpoint, serverKey string) *FCMDispatcher {
	return &FCMDispatcher{
		endpoint:  endpoint,
		serverKey: serverKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (f *FCMDispatcher) Name() string { return "fcm" }

func (f *FCMDispatcher) Send(ctx context.Context, token string, msg Message) error {
	payload := fcmPayload{
		To: token,
		Notification: fcmNotification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: fcmAndroid{
			Notification: fcmAndroidNotification{
				ChannelID: msg.Channel,
				Icon:      "ic_launcher",
			},
		},
		APNS: fcmAPNS{
			Payload: fcmAPNSPayload{
				APS: fcmAPS{Sound: "default", Badge: 1},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal fcm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.serverKey != "" {
		req.Header.Set("Authorization", "key="+f.serverKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("send fcm message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}
	return nil
}

type fcmPayload struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
	APNS         fcmAPNS           `json:"apns"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Notification fcmAndroidNotification `json:"notification"`
}

type fcmAndroidNotification struct {
	ChannelID string `json:"channel_id,omitempty"`
	Icon      string `json:"icon,omitempty"`
}

type fcmAPNS struct {
	Payload fcmAPNSPayload `json:"payload"`
}

type fcmAPNSPayload struct {
	APS fcmAPS `json:"aps"`
}

type fcmAPS struct {
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}
