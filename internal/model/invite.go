package model

import "time"

// InviteLookup is one entry of the side table mapping a short-code pair back
// to the full (sessionId, token) pair. Full values are stored because the
// 6-char codes can collide; resolution re-verifies against them.
type InviteLookup struct {
	ShortSid   string    `json:"shortSid" bson:"shortSid"`
	ShortToken string    `json:"shortToken" bson:"shortToken"`
	SessionID  string    `json:"sessionId" bson:"sessionId"`
	Token      string    `json:"token" bson:"token"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// InviteAsset is the shareable invite produced for a session. URL is empty
// when asset generation failed and the caller should fall back to Scene.
type InviteAsset struct {
	SessionID string `json:"sessionId"`
	Scene     string `json:"scene"`
	URL       string `json:"url,omitempty"`
	Fallback  bool   `json:"fallback"`
}
